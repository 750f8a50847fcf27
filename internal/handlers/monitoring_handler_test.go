package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"inventory-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingMonitor struct {
	mu       sync.Mutex
	recorded []models.RequestData
}

func (r *recordingMonitor) GetMetrics(context.Context) *models.MonitoringResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &models.MonitoringResponse{
		Requests:  models.RequestMetrics{TotalRequests: len(r.recorded)},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func (r *recordingMonitor) RecordRequest(data models.RequestData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded = append(r.recorded, data)
}

func TestRecordRequestMiddleware(t *testing.T) {
	monitor := &recordingMonitor{}
	h := NewMonitoringHandler(monitor, 0, zap.NewNop())

	router := gin.New()
	router.Use(h.RecordRequestMiddleware())
	router.GET("/api/v1/transactions/:code", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/api/v1/monitoring/metrics", h.GetMetrics)

	for _, path := range []string{"/api/v1/transactions/SI-1", "/api/v1/monitoring/metrics"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, monitor.recorded, 1)
	// se agrupa por ruta, no por código concreto
	assert.Equal(t, "/api/v1/transactions/:code", monitor.recorded[0].Endpoint)
	assert.Equal(t, http.StatusNotFound, monitor.recorded[0].StatusCode)
}

func TestTransferCodeResolution(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := transferCode(c, "")
	assert.Error(t, err)

	code, err := transferCode(c, "TR-20261019-0001")
	require.NoError(t, err)
	assert.Equal(t, "TR-20261019-0001", code)

	c.Params = gin.Params{{Key: "code", Value: "TR-20261019-0002"}}
	code, err = transferCode(c, "")
	require.NoError(t, err)
	assert.Equal(t, "TR-20261019-0002", code)

	_, err = transferCode(c, "TR-20261019-0001")
	assert.Error(t, err)
}
