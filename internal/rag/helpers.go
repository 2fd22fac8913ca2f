package rag

import (
	"fmt"

	"github.com/ragdemo/docchat/internal/domain/commonModels"
)

// Truncate keeps the first n characters (runes, not bytes) of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func sourceOf(hit commonModels.SearchHit) string {
	if src, ok := hit.Metadata[commonModels.MetaSource]; ok {
		return fmt.Sprint(src)
	}
	return "unknown"
}
