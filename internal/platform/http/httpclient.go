// Package http は推論サイドカーなど外部サービス呼び出し用のHTTPクライアントを提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

const (
	// maxConnsPerHost は1ホストあたりの同時接続数の上限です。
	maxConnsPerHost = 32
	dialTimeout     = 5 * time.Second
)

// NewHTTPClient は推論リクエスト用に設定されたHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - MaxIdleConnsPerHost / MaxConnsPerHost: 単一のサイドカーへの接続を再利用
//   - ResponseHeaderTimeout: 推論結果が返るまでの上限（timeoutと同じ）
//   - Client.Timeout: アップロードを含むリクエスト全体の上限
//
// timeoutが0以下の場合はタイムアウトなしになります。
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
