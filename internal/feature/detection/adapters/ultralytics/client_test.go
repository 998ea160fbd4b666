package ultralytics

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logodetect_backend/internal/feature/detection/domain/entity"
	infrahttp "logodetect_backend/internal/platform/http"
)

// newSidecar はテスト用の推論サイドカーを起動します。
func newSidecar(t *testing.T, mux *http.ServeMux) *Engine {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewEngine(srv.URL+"/", infrahttp.NewHTTPClient(5*time.Second))
}

func TestEngine_LoadModel(t *testing.T) {
	t.Parallel()

	var got loadRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /models/load", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"names":{"0":"acme"}}`))
	})
	e := newSidecar(t, mux)

	m, err := e.LoadModel(context.Background(), entity.WeightInfo{Name: "original.pt", Path: "weights/original.pt"})
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Equal(t, "original.pt", got.Name)
	assert.Equal(t, "weights/original.pt", got.WeightPath)
}

func TestEngine_LoadModel_Error(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /models/load", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such weight", http.StatusNotFound)
	})
	e := newSidecar(t, mux)

	_, err := e.LoadModel(context.Background(), entity.WeightInfo{Name: "x.pt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "no such weight")
}

func TestModel_Predict(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /models/load", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("POST /predict", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "weights/best.pt", r.FormValue("weight_path"))
		assert.Equal(t, "0.4", r.FormValue("conf"))

		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "jpeg-bytes", string(data))

		_, _ = w.Write([]byte(`{"detections":[
			{"bbox":[1,2,30,40],"confidence":0.9,"class_id":3,"class_name":"acme"},
			{"bbox":[5,5,9,9],"confidence":0.2,"class_id":1,"class_name":"low"}
		]}`))
	})
	e := newSidecar(t, mux)

	m, err := e.LoadModel(context.Background(), entity.WeightInfo{Name: "best.pt", Path: "weights/best.pt"})
	require.NoError(t, err)

	dets, err := m.Predict(context.Background(), []byte("jpeg-bytes"), 0.4)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, entity.Detection{BBox: [4]float64{1, 2, 30, 40}, Confidence: 0.9, ClassID: 3, ClassName: "acme"}, dets[0])
}

func TestModel_Predict_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "cuda out of memory", http.StatusInternalServerError)
			},
			wantErr: "cuda out of memory",
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"detections":`))
			},
			wantErr: "decode predict response",
		},
		{
			name: "bad bbox",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"detections":[{"bbox":[1,2],"confidence":0.9,"class_id":0,"class_name":"a"}]}`))
			},
			wantErr: "invalid bbox length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mux := http.NewServeMux()
			mux.HandleFunc("POST /predict", tt.handler)
			e := newSidecar(t, mux)
			m := &Model{engine: e, weight: entity.WeightInfo{Name: "a.pt", Path: "weights/a.pt"}}

			_, err := m.Predict(context.Background(), []byte("img"), 0.5)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEngine_Device(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /device", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"device":"cuda","device_name":"NVIDIA L4","memory_total":24000000000,"memory_allocated":1000}`))
	})
	e := newSidecar(t, mux)

	info, err := e.Device(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cuda", info.Device)
	assert.Equal(t, "NVIDIA L4", info.DeviceName)
	require.NotNil(t, info.MemoryTotal)
	assert.Equal(t, int64(24000000000), *info.MemoryTotal)
	require.NotNil(t, info.MemoryAllocated)
	assert.Nil(t, info.MemoryCached)
}

func TestEngine_Device_UnknownName(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /device", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"device":"cpu"}`))
	})
	e := newSidecar(t, mux)

	info, err := e.Device(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Unknown", info.DeviceName)
}
