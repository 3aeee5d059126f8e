// Package code normaliza el texto escaneado o digitado a un código de producto canónico.
//
// Un código válido tiene cuatro grupos alfanuméricos de 1 a 6 caracteres separados
// por guion ASCII, en mayúsculas (ej. RB-10-02-16).
package code

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// ErrInvalidFormat el texto no produce un código de cuatro grupos válido.
var ErrInvalidFormat = errors.New("código con formato inválido")

// ProductCode código canónico de producto. Solo se obtiene vía Normalize o Parse.
type ProductCode string

func (c ProductCode) String() string { return string(c) }

var (
	shape = regexp.MustCompile(`^[A-Z0-9]{1,6}(-[A-Z0-9]{1,6}){3}$`)

	imageExtensions = []string{".jpeg", ".jpg", ".png", ".webp", ".gif", ".bmp", ".heic", ".svg", ".tiff", ".tif"}
)

// Normalize canonicaliza raw y valida su forma.
// Pasos: trim; descartar query/fragmento; quedarse con el último segmento de ruta;
// quitar extensión de imagen; ancho completo a ASCII; unificar guiones unicode;
// quitar espacios internos; mayúsculas solo en a-z. Cualquier otra letra no ASCII
// queda tal cual y la validación la rechaza.
func Normalize(raw string) (ProductCode, error) {
	s := strings.TrimSpace(raw)

	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if strings.ContainsAny(s, `/\`) {
		s = strings.TrimRight(s, `/\`)
		if i := strings.LastIndexAny(s, `/\`); i >= 0 {
			s = s[i+1:]
		}
		if unescaped, err := url.PathUnescape(s); err == nil {
			s = unescaped
		}
	}

	s = stripImageExtension(s)
	s = width.Narrow.String(s)
	s = strings.Map(foldRune, s)

	if !shape.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}
	return ProductCode(s), nil
}

// MustNormalize como Normalize pero entra en pánico; solo para constantes y tests.
func MustNormalize(raw string) ProductCode {
	c, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// Valid indica si s ya está en forma canónica.
func Valid(s string) bool {
	return shape.MatchString(s)
}

func stripImageExtension(s string) string {
	for _, ext := range imageExtensions {
		if len(s) > len(ext) && strings.EqualFold(s[len(s)-len(ext):], ext) {
			return s[:len(s)-len(ext)]
		}
	}
	return s
}

// foldRune convierte cualquier guion unicode en '-', elimina espacios y pasa a-z a mayúsculas.
func foldRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z':
		return r - 'a' + 'A'
	case unicode.IsSpace(r):
		return -1
	case r == '\u2212' || r == '\u00ad' || unicode.Is(unicode.Pd, r):
		return '-'
	}
	return r
}
