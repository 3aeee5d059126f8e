package code_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/jhoicas/Inventario-scan/internal/domain/code"
)

func TestNormalize_FormasEquivalentes(t *testing.T) {
	inputs := []string{
		"RB-10-02-16",
		"  rb-10-02-16  ",
		"https://cdn.example.com/products/RB-10-02-16.jpg?x=1",
		"https://cdn.example.com/products/RB-10-02-16/",
		"https://cdn.example.com/p/RB-10-02-16#detalle",
		"/storage/RB-10-02-16.PNG",
		`C:\fotos\RB-10-02-16.jpeg`,
		"RB–10—02‑16",         // guiones unicode
		"RB - 10 - 02 - 16",   // espacios internos
		"ＲＢ－１０－０２－１６", // ancho completo
		"https://x.test/a/RB%2D10%2D02%2D16.webp",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := code.Normalize(in)
			require.NoError(t, err)
			assert.Equal(t, code.ProductCode("RB-10-02-16"), got)
		})
	}
}

func TestNormalize_RechazaFormasInvalidas(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"RB-10-02",            // tres grupos
		"RB-10-02-16-99",      // cinco grupos
		"RB-1234567-02-16",    // grupo de 7
		"RB--02-16",           // grupo vacío
		"RB-10-02-1_6",        // no alfanumérico
		"RB-10-02-16.pdf",     // extensión que no es imagen
		"https://x.test/a/b/", // último segmento no es código
		"ÑB-10-02-16",         // letra fuera de ASCII
		"ß-10-02-16",          // no se expande a SS
		"①-10-02-16",          // dígito encerrado no se pliega a 1
		"ﬁ-10-02-16",          // ligadura no se descompone
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := code.Normalize(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, code.ErrInvalidFormat))
		})
	}
}

func genCode() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		parts := make([]string, 4)
		for i := range parts {
			parts[i] = rapid.StringMatching(`[A-Za-z0-9]{1,6}`).Draw(t, "segment")
		}
		return strings.Join(parts, "-")
	})
}

// Para todo código válido, los adornos de URL/archivo no cambian el resultado.
func TestNormalize_PropiedadAdornosSeEliminan(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clean := genCode().Draw(t, "code")
		prefix := rapid.SampledFrom([]string{"", "https://h.test/", "/a/b/", `x\y\`, "  "}).Draw(t, "prefix")
		ext := rapid.SampledFrom([]string{"", ".jpg", ".JPEG", ".png", ".webp"}).Draw(t, "ext")
		suffix := rapid.SampledFrom([]string{"", "?x=1", "#frag", "/", "?a=/b/c", "  "}).Draw(t, "suffix")

		want, err := code.Normalize(clean)
		if err != nil {
			t.Fatalf("código limpio rechazado %q: %v", clean, err)
		}
		decorated := prefix + clean + ext + suffix
		got, err := code.Normalize(decorated)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", decorated, err)
		}
		if got != want {
			t.Fatalf("Normalize(%q) = %q, esperado %q", decorated, got, want)
		}
	})
}

// Normalizar es idempotente y siempre produce la forma canónica.
func TestNormalize_PropiedadIdempotente(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c, err := code.Normalize(genCode().Draw(t, "code"))
		if err != nil {
			t.Fatalf("inesperado: %v", err)
		}
		if !code.Valid(c.String()) {
			t.Fatalf("%q no es canónico", c)
		}
		again, err := code.Normalize(c.String())
		if err != nil || again != c {
			t.Fatalf("no idempotente: %q -> %q (%v)", c, again, err)
		}
	})
}

// Cualquier número de grupos distinto de cuatro se rechaza.
func TestNormalize_PropiedadCantidadDeGrupos(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Filter(func(n int) bool { return n != 4 }).Draw(t, "groups")
		parts := make([]string, n)
		for i := range parts {
			parts[i] = rapid.StringMatching(`[A-Z0-9]{1,6}`).Draw(t, "segment")
		}
		if _, err := code.Normalize(strings.Join(parts, "-")); !errors.Is(err, code.ErrInvalidFormat) {
			t.Fatalf("%d grupos debió rechazarse, err=%v", n, err)
		}
	})
}
