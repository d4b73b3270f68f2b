package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"evicite/internal/domain"
	"evicite/internal/handler"
	"evicite/mocks"
)

func newSourceHandler() (*handler.SourceHandler, *mocks.MockRunService) {
	mockSvc := new(mocks.MockRunService)
	h := handler.NewSourceHandler(mockSvc)
	return h, mockSvc
}

func TestSourceHandler_Artifact_Success(t *testing.T) {
	h, mockSvc := newSourceHandler()

	mockSvc.On("ArtifactURL", mock.Anything, "deadbeef0123").
		Return("https://s3.example.com/signed", nil)

	w := httptest.NewRecorder()
	c := withParam(w, "identity", "deadbeef0123")

	h.Artifact(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.APIResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "https://s3.example.com/signed", data["url"])
}

func TestSourceHandler_Artifact_NotReady(t *testing.T) {
	h, mockSvc := newSourceHandler()

	mockSvc.On("ArtifactURL", mock.Anything, "deadbeef0123").
		Return("", domain.ErrArtifactUnavailable)

	w := httptest.NewRecorder()
	c := withParam(w, "identity", "deadbeef0123")

	h.Artifact(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSourceHandler_Artifact_UnknownSource(t *testing.T) {
	h, mockSvc := newSourceHandler()

	mockSvc.On("ArtifactURL", mock.Anything, "unknown").
		Return("", domain.ErrSourceNotFound)

	w := httptest.NewRecorder()
	c := withParam(w, "identity", "unknown")

	h.Artifact(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
