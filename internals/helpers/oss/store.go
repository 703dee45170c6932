package oss

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"hoa_backend/internals/configs"
	"hoa_backend/internals/constants"
)

const MaxProofSize = int64(5 * 1024 * 1024)

// ProofStore keeps proof-of-payment uploads and returns the URL to record on
// the payment.
type ProofStore interface {
	SaveProof(ctx context.Context, dir string, fh *multipart.FileHeader) (string, error)
}

// prepared is an upload ready to be written: images are already WebP.
type prepared struct {
	name        string
	contentType string
	data        []byte
}

func prepareProof(fh *multipart.FileHeader, opt WebPOptions) (*prepared, error) {
	if fh == nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "file not found")
	}
	if fh.Size > MaxProofSize {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, fmt.Sprintf("file too large (max %d bytes)", MaxProofSize))
	}
	kind := constants.DetectProofFileKind(fh.Filename)
	if kind == constants.ProofFileUnsupported {
		return nil, fiber.NewError(fiber.StatusUnsupportedMediaType, "proof must be an image (jpg/png/webp) or a pdf")
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer src.Close()
	all, err := io.ReadAll(io.LimitReader(src, MaxProofSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(all)) > MaxProofSize {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, "file too large")
	}

	base := strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
	if kind == constants.ProofFileImage {
		data, err := ConvertToWebP(all, fh.Filename, opt)
		if err != nil {
			if err == ErrUnsupportedImage {
				return nil, fiber.NewError(fiber.StatusUnsupportedMediaType, err.Error())
			}
			return nil, fiber.NewError(fiber.StatusBadRequest, "cannot read image: "+err.Error())
		}
		return &prepared{name: objectName(base, ".webp"), contentType: "image/webp", data: data}, nil
	}

	ct := mime.TypeByExtension(".pdf")
	if ct == "" {
		ct = http.DetectContentType(all)
	}
	return &prepared{name: objectName(base, ".pdf"), contentType: ct, data: all}, nil
}

func objectName(base, ext string) string {
	return fmt.Sprintf("%s_%s_%s%s", slugify(base), time.Now().Format("20060102_150405"), randHex(3), ext)
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, s)
	if s == "" {
		return "proof"
	}
	return s
}

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// LocalProofStore writes under Root and serves files from BaseURL (the
// static /uploads mount).
type LocalProofStore struct {
	Root    string
	BaseURL string
	WebP    WebPOptions
}

func NewLocalProofStore(root, baseURL string) *LocalProofStore {
	return &LocalProofStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/"), WebP: WebPOptionsFromEnv()}
}

func (s *LocalProofStore) SaveProof(ctx context.Context, dir string, fh *multipart.FileHeader) (string, error) {
	p, err := prepareProof(fh, s.WebP)
	if err != nil {
		return "", err
	}
	rel := path.Join(strings.Trim(dir, "/"), p.name)
	full := filepath.Join(s.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(full, p.data, 0o644); err != nil {
		return "", fmt.Errorf("write proof: %w", err)
	}
	return s.BaseURL + "/" + rel, nil
}

// NewProofStoreFromEnv uses Aliyun OSS when ALI_OSS_* is configured and local
// disk otherwise.
func NewProofStoreFromEnv() ProofStore {
	if configs.GetEnv("ALI_OSS_BUCKET") != "" {
		s, err := NewOSSProofStoreFromEnv("proofs")
		if err == nil {
			return s
		}
		log.Printf("[WARN] OSS proof store unavailable, falling back to disk: %v", err)
	}
	return NewLocalProofStore(configs.UploadDir, "/uploads")
}
