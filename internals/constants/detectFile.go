package constants

import (
	"path/filepath"
	"strings"
)

type ProofFileKind int

const (
	ProofFileImage ProofFileKind = iota + 1
	ProofFilePDF
	ProofFileUnsupported ProofFileKind = 99
)

// DetectProofFileKind classifies an uploaded proof of payment by extension.
func DetectProofFileKind(filename string) ProofFileKind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return ProofFileImage
	case ".pdf":
		return ProofFilePDF
	default:
		return ProofFileUnsupported
	}
}
