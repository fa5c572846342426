package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wavecore/masterstream/internal/database"
	"github.com/wavecore/masterstream/internal/fingerprint"
	"github.com/wavecore/masterstream/internal/pcm"
	"github.com/wavecore/masterstream/internal/queue"
)

func setupFingerprintDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&database.FingerprintRow{}))
	database.DB = db
}

type queueFakeLoader struct{}

func (queueFakeLoader) Load(ctx context.Context, trackID string) (*pcm.Buffer, error) {
	return &pcm.Buffer{SampleRate: 44100, Channels: 1, Samples: make([]float64, 88200)}, nil
}

func fingerprintRouter(t *testing.T) *gin.Engine {
	setupFingerprintDB(t)
	q := queue.New(queueFakeLoader{}, fingerprint.NewLocalComputer(), 1)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewFingerprintHandler(q)
	r.GET("/tracks/:id/fingerprint", h.Status)
	return r
}

func TestFingerprintStatusEnqueuesOnFirstRequest(t *testing.T) {
	r := fingerprintRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/tracks/track1/fingerprint", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "pending")

	row, err := database.GetFingerprintRow("track1")
	require.NoError(t, err)
	assert.Equal(t, database.FingerprintPending, row.Status)
}

func TestFingerprintStatusReturnsExistingRow(t *testing.T) {
	r := fingerprintRouter(t)
	require.NoError(t, database.EnsurePending("track2"))
	require.NoError(t, database.ClaimForProcessing("track2"))
	require.NoError(t, database.MarkComplete("track2", `{"lufs":-14}`, "deadbeef"))

	req := httptest.NewRequest(http.MethodGet, "/tracks/track2/fingerprint", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "complete")
	assert.Contains(t, rec.Body.String(), "deadbeef")
}
