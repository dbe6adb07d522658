package repository

import (
	"fmt"
	"testing"

	"github.com/rocketscienceinc/classhub-backend/internal/entity"
	"github.com/rocketscienceinc/classhub-backend/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadRepository_Recent(t *testing.T) {
	ctx, st := suite.NewSQLite(t)
	uploadRepo := NewUploadRepository(st.Connection)

	// Given: twelve uploads
	for i := range 12 {
		require.NoError(t, uploadRepo.Save(ctx, &entity.Upload{
			Filename:    fmt.Sprintf("meme%02d.png", i),
			Uploader:    "alice",
			ContentType: "image/png",
			Timestamp:   fmt.Sprintf("2024-01-01 09:00:%02d", i),
		}))
	}

	// When: the ten most recent are requested
	uploads, err := uploadRepo.Recent(ctx, 10)

	// Then: newest come first and the limit holds
	require.NoError(t, err)
	require.Len(t, uploads, 10)
	assert.Equal(t, "meme11.png", uploads[0].Filename)
	assert.Equal(t, "meme02.png", uploads[9].Filename)
	assert.Equal(t, "image/png", uploads[0].ContentType)
}
