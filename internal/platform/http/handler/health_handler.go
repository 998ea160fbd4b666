// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReadyFunc はモデルが推論可能かどうかを返します。
type ReadyFunc func() bool

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// プロセスが生きていれば常に200を返し、モデルのロード状態を付加します。
func Health(ready ReadyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 明示的にキャッシュを防止
		c.Header("Cache-Control", "no-store")

		switch c.Request.Method {
		case http.MethodHead:
			c.Status(http.StatusOK)
		case http.MethodOptions:
			c.Status(http.StatusNoContent)
		default:
			c.JSON(http.StatusOK, gin.H{
				"status":       "ok",
				"model_loaded": ready != nil && ready(),
			})
		}
	}
}
