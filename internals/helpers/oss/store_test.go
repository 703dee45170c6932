package oss

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("proof", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["proof"][0]
}

func TestLocalProofStore_StoresPDFAsIs(t *testing.T) {
	root := t.TempDir()
	s := NewLocalProofStore(root, "/uploads/")
	data := []byte("%PDF-1.4\n%fake receipt\n")

	url, err := s.SaveProof(context.Background(), "holder-1", fileHeader(t, "GCash Receipt.pdf", data))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/holder-1/gcash-receipt_"), url)
	require.True(t, strings.HasSuffix(url, ".pdf"), url)

	stored, err := os.ReadFile(filepath.Join(root, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	require.Equal(t, data, stored)
}

func TestLocalProofStore_RejectsUnsupportedFiles(t *testing.T) {
	s := NewLocalProofStore(t.TempDir(), "/uploads")

	_, err := s.SaveProof(context.Background(), "x", fileHeader(t, "notes.txt", []byte("hello")))
	require.Error(t, err)
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	require.Equal(t, fiber.StatusUnsupportedMediaType, fe.Code)
}

func TestLocalProofStore_RejectsNilFile(t *testing.T) {
	s := NewLocalProofStore(t.TempDir(), "/uploads")
	_, err := s.SaveProof(context.Background(), "x", nil)
	require.Error(t, err)
}

func TestDownscale_KeepsAspectRatio(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for x := 0; x < 400; x++ {
		src.Set(x, 10, color.RGBA{R: 200, A: 255})
	}

	out := Downscale(src, 100, 100)
	require.Equal(t, 100, out.Bounds().Dx())
	require.Equal(t, 50, out.Bounds().Dy())

	same := Downscale(src, 1000, 1000)
	require.Equal(t, src.Bounds(), same.Bounds())
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "gcash-receipt-01", slugify("GCash Receipt_01"))
	require.Equal(t, "proof", slugify("***"))
}
