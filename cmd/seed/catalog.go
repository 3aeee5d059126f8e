package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
)

// locationNamespace espacio para derivar IDs de ubicación estables a partir del código.
var locationNamespace = uuid.MustParse("6f1c7a52-3b8e-4d5c-9a1e-2f0b7c4d8e91")

// fila de catalogo.csv:
//
//	codigo;nombre;imagen;costo;ubicacion;existencias
//
// ubicacion y existencias pueden ir vacías (producto sin stock inicial).
type catalogRow struct {
	Product  entity.Product
	Location *entity.Location
	OnHand   int
}

// catalog resultado del parseo, con ubicaciones deduplicadas por código.
type catalog struct {
	Rows      []catalogRow
	Locations []entity.Location
}

// newReader aplica la decodificación según charset (utf-8 | latin1).
func newReader(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin1", "iso-8859-1", "iso8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("charset no soportado: %q", charset)
	}
}

func locationID(locCode string) string {
	return uuid.NewSHA1(locationNamespace, []byte(locCode)).String()
}

func parseCatalog(r io.Reader, charset string) (*catalog, error) {
	in, err := newReader(r, charset)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(in)
	cr.Comma = ';'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	out := &catalog{}
	seen := make(map[string]bool)
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("leer csv: %w", err)
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "codigo") {
			continue
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("línea %d: se esperan al menos codigo;nombre", line)
		}
		c, err := code.Normalize(rec[0])
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		row := catalogRow{Product: entity.Product{
			Code: c,
			Name: strings.TrimSpace(rec[1]),
			Cost: decimal.Zero,
		}}
		if len(rec) > 2 {
			row.Product.ImagePath = strings.TrimSpace(rec[2])
		}
		if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
			cost, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(rec[3]), ",", "."))
			if err != nil || cost.IsNegative() {
				return nil, fmt.Errorf("línea %d: costo inválido %q", line, rec[3])
			}
			row.Product.Cost = cost
		}
		if len(rec) > 4 && strings.TrimSpace(rec[4]) != "" {
			locCode := strings.ToUpper(strings.TrimSpace(rec[4]))
			loc := entity.Location{ID: locationID(locCode), Code: locCode, Name: locCode}
			row.Location = &loc
			if !seen[locCode] {
				seen[locCode] = true
				out.Locations = append(out.Locations, loc)
			}
			if len(rec) > 5 && strings.TrimSpace(rec[5]) != "" {
				qty, err := strconv.Atoi(strings.TrimSpace(rec[5]))
				if err != nil || qty < 0 {
					return nil, fmt.Errorf("línea %d: existencias inválidas %q", line, rec[5])
				}
				row.OnHand = qty
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
