package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/geometry"
	"github.com/df07/go-lightpath/pkg/material"
)

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name      string
	Type      string // value type; for lists, the type of each entry
	IsList    bool
	CountType string // for list properties, the type of the count
}

// PLYElement is one element block of the header, e.g. "element vertex 8"
type PLYElement struct {
	Name  string
	Count int
	Props []PLYProperty
}

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format   string // "ascii", "binary_little_endian" or "binary_big_endian"
	Elements []PLYElement
}

// PLYData contains the vertex positions and triangulated faces of a PLY file
type PLYData struct {
	Vertices []core.Vec3
	Faces    []int // Triangle indices (3 per triangle)
}

// LoadPLY loads a PLY file and returns the raw vertex and face data
func LoadPLY(filename string) (*PLYData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open PLY file: %w", err)
	}
	defer file.Close()

	data, err := ReadPLY(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return data, nil
}

// ReadPLY decodes a PLY stream. Polygons with more than three vertices are
// split into triangle fans.
func ReadPLY(r io.Reader) (*PLYData, error) {
	br := bufio.NewReader(r)
	header, err := parsePLYHeader(br)
	if err != nil {
		return nil, fmt.Errorf("parse PLY header: %w", err)
	}

	var values plyValueReader
	switch header.Format {
	case "ascii":
		sc := bufio.NewScanner(br)
		sc.Split(bufio.ScanWords)
		values = &asciiValues{sc: sc}
	case "binary_little_endian":
		values = &binaryValues{r: br, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryValues{r: br, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("unsupported PLY format: %q", header.Format)
	}

	data := &PLYData{}
	for _, elem := range header.Elements {
		if err := readPLYElement(values, elem, data); err != nil {
			return nil, fmt.Errorf("read %s data: %w", elem.Name, err)
		}
	}

	for _, idx := range data.Faces {
		if idx < 0 || idx >= len(data.Vertices) {
			return nil, fmt.Errorf("face index %d out of range (%d vertices)", idx, len(data.Vertices))
		}
	}
	return data, nil
}

// parsePLYHeader reads the header up to and including end_header
func parsePLYHeader(r *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	first := true

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("header not terminated: %w", err)
		}
		parts := strings.Fields(line)

		if first {
			if len(parts) != 1 || parts[0] != "ply" {
				return nil, fmt.Errorf("missing ply magic")
			}
			first = false
			continue
		}
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			if header.Format == "" {
				return nil, fmt.Errorf("missing format line")
			}
			return header, nil
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid format line: %q", strings.TrimSpace(line))
			}
			header.Format = parts[1]
		case "comment", "obj_info":
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line: %q", strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
		case "property":
			if len(header.Elements) == 0 {
				return nil, fmt.Errorf("property before any element")
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, err
			}
			elem := &header.Elements[len(header.Elements)-1]
			elem.Props = append(elem.Props, prop)
		default:
			return nil, fmt.Errorf("unknown header keyword %q", parts[0])
		}
	}
}

func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) >= 4 && parts[0] == "list" {
		return PLYProperty{Name: parts[3], Type: parts[2], IsList: true, CountType: parts[1]}, nil
	}
	if len(parts) >= 2 && parts[0] != "list" {
		return PLYProperty{Name: parts[1], Type: parts[0]}, nil
	}
	return PLYProperty{}, fmt.Errorf("invalid property: %q", strings.Join(parts, " "))
}

// readPLYElement reads every entry of one element. Vertex positions and face
// index lists are kept; everything else is read and discarded.
func readPLYElement(values plyValueReader, elem PLYElement, data *PLYData) error {
	for i := 0; i < elem.Count; i++ {
		var pos core.Vec3
		for _, prop := range elem.Props {
			if prop.IsList {
				n, err := values.value(prop.CountType)
				if err != nil {
					return err
				}
				if n < 0 {
					return fmt.Errorf("negative list length %g", n)
				}
				list := make([]int, int(n))
				for j := range list {
					v, err := values.value(prop.Type)
					if err != nil {
						return err
					}
					list[j] = int(v)
				}
				if elem.Name == "face" && (prop.Name == "vertex_indices" || prop.Name == "vertex_index") {
					for j := 1; j+1 < len(list); j++ {
						data.Faces = append(data.Faces, list[0], list[j], list[j+1])
					}
				}
				continue
			}

			v, err := values.value(prop.Type)
			if err != nil {
				return err
			}
			if elem.Name == "vertex" {
				switch prop.Name {
				case "x":
					pos.X = v
				case "y":
					pos.Y = v
				case "z":
					pos.Z = v
				}
			}
		}
		if elem.Name == "vertex" {
			data.Vertices = append(data.Vertices, pos)
		}
	}
	return nil
}

type plyValueReader interface {
	value(typ string) (float64, error)
}

type asciiValues struct {
	sc *bufio.Scanner
}

func (a *asciiValues) value(typ string) (float64, error) {
	if !a.sc.Scan() {
		if err := a.sc.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.ParseFloat(a.sc.Text(), 64)
}

type binaryValues struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryValues) value(typ string) (float64, error) {
	size := plyTypeSize(typ)
	if size == 0 {
		return 0, fmt.Errorf("unknown property type %q", typ)
	}
	buf := b.buf[:size]
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return 0, err
	}

	switch typ {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(buf))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(buf)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(buf))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(buf)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(buf))), nil
	default: // double
		return math.Float64frombits(b.order.Uint64(buf)), nil
	}
}

func plyTypeSize(typ string) int {
	switch typ {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	}
	return 0
}

// NewMesh builds a group of triangles from PLY data. Degenerate faces are
// skipped and counted; a mesh with no usable face is itself degenerate.
func NewMesh(data *PLYData, xf core.Transform, mat *material.Material) (*geometry.Group, int, error) {
	var tris []geometry.Object
	dropped := 0
	for i := 0; i+2 < len(data.Faces); i += 3 {
		v0 := data.Vertices[data.Faces[i]]
		v1 := data.Vertices[data.Faces[i+1]]
		v2 := data.Vertices[data.Faces[i+2]]
		tri, err := geometry.NewTriangle(v0, v1, v2, core.IdentityTransform(), mat)
		if err != nil {
			dropped++
			continue
		}
		tris = append(tris, tri)
	}
	if len(tris) == 0 {
		return nil, dropped, &geometry.DegenerateError{Kind: "mesh", Reason: "no non-degenerate faces"}
	}
	return geometry.NewGroup(tris, xf, mat), dropped, nil
}
