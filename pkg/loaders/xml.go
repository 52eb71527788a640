package loaders

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-lightpath/pkg/config"
	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/geometry"
	"github.com/df07/go-lightpath/pkg/lights"
	"github.com/df07/go-lightpath/pkg/material"
	"github.com/df07/go-lightpath/pkg/scene"
	"github.com/df07/go-lightpath/pkg/texture"
)

// ErrMissingField is wrapped by a ParseError when a required element or attribute is absent
var ErrMissingField = errors.New("missing required field")

// ParseError reports a malformed or missing scene field. Path names the
// element, e.g. "Tracer/Object[ball]/Radius".
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("scene %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErr(path, format string, args ...interface{}) error {
	return &ParseError{Path: path, Err: fmt.Errorf(format, args...)}
}

// Document layout. Optional scalar fields are pointers so that a missing
// element can be told apart from an empty one.
type xmlDocument struct {
	XMLName   xml.Name
	Options   *xmlOptions     `xml:"Options"`
	Textures  []xmlTexture    `xml:"Texture"`
	Materials []xmlMaterial   `xml:"Material"`
	Objects   []xmlObject     `xml:"Object"`
	Lights    []xmlLight      `xml:"Light"`
	Scenes    []xmlSceneBlock `xml:"Scene"`
}

type xmlSceneBlock struct {
	Objects []xmlObject `xml:"Object"`
	Lights  []xmlLight  `xml:"Light"`
}

type xmlOptions struct {
	Width          *string `xml:"Width"`
	Height         *string `xml:"Height"`
	FoV            *string `xml:"FoV"`
	WorldToScreen  *string `xml:"WorldToScreen"`
	Aperture       *string `xml:"Aperture"`
	Focus          *string `xml:"Focus"`
	Eye            *string `xml:"Eye"`
	LookAt         *string `xml:"LookAt"`
	CameraUp       *string `xml:"CameraUp"`
	MaxDepth       *string `xml:"MaxDepth"`
	Samples        *string `xml:"Samples"`
	Background     *string `xml:"Background"`
	Gamma          *string `xml:"Gamma"`
	Integrator     *string `xml:"Integrator"`
	SampleOneLight *string `xml:"SampleOneLight"`
	Seed           *string `xml:"Seed"`
	Supersample    *string `xml:"Supersample"`
}

type xmlTexture struct {
	Name   string  `xml:"name,attr"`
	Type   string  `xml:"type,attr"`
	Color  *string `xml:"Color"`
	ColorA *string `xml:"ColorA"`
	ColorB *string `xml:"ColorB"`
	ScaleS *string `xml:"ScaleS"`
	ScaleT *string `xml:"ScaleT"`
	File   *string `xml:"File"`
}

type xmlMaterial struct {
	Name       string    `xml:"name,attr"`
	Refraction *string   `xml:"refraction,attr"`
	Shadow     *string   `xml:"shadow,attr"`
	Lobes      []xmlLobe `xml:",any"`
}

type xmlLobe struct {
	XMLName  xml.Name
	Color    *string `xml:"color,attr"`
	Texture  *string `xml:"texture,attr"`
	Exponent *string `xml:"exponent,attr"`
}

type xmlObject struct {
	Name      string        `xml:"name,attr"`
	Type      string        `xml:"type,attr"`
	Radius    *string       `xml:"Radius"`
	Height    *string       `xml:"Height"`
	Dim       *string       `xml:"Dim"`
	V0        *string       `xml:"V0"`
	V1        *string       `xml:"V1"`
	V2        *string       `xml:"V2"`
	File      *string       `xml:"File"`
	Transform *xmlTransform `xml:"Transform"`
	Material  *string       `xml:"Material"`
	Children  []xmlObject   `xml:"Object"`
}

type xmlTransform struct {
	Ops []xmlTransformOp `xml:",any"`
}

type xmlTransformOp struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlLight struct {
	Type       string  `xml:"type,attr"`
	Intensity  *string `xml:"Intensity"`
	Position   *string `xml:"Position"`
	Irradiance *string `xml:"Irradiance"`
	Direction  *string `xml:"Direction"`
	Object     *string `xml:"Object"`
	Radiance   *string `xml:"Radiance"`
}

// sceneParser turns a decoded document into a scene. Textures and materials
// are shared by pointer between everything that names them.
type sceneParser struct {
	dir    string // relative file references resolve against this
	logger core.Logger

	textures        map[string]texture.Texture
	materials       map[string]*material.Material
	named           map[string]geometry.Object // top-level objects, for area lights
	defaultMaterial *material.Material
}

// LoadSceneFile reads and parses an XML scene file. Files referenced by the
// scene (meshes, image textures) are resolved relative to it.
func LoadSceneFile(path string, logger core.Logger) (*scene.Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()
	return ParseScene(f, filepath.Dir(path), logger)
}

// ParseScene parses an XML scene and preprocesses it for rendering. Options
// are filled but not validated; callers apply their overrides first.
func ParseScene(r io.Reader, dir string, logger core.Logger) (*scene.Scene, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}

	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ParseError{Path: "document", Err: err}
	}

	p := &sceneParser{
		dir:             dir,
		logger:          logger,
		textures:        make(map[string]texture.Texture),
		materials:       make(map[string]*material.Material),
		named:           make(map[string]geometry.Object),
		defaultMaterial: material.NewMatte("default", core.NewVec3(0.5, 0.5, 0.5)),
	}
	root := doc.XMLName.Local

	opts, err := p.parseOptions(root+"/Options", doc.Options)
	if err != nil {
		return nil, err
	}
	s := scene.New(opts)

	for i, xt := range doc.Textures {
		if err := p.parseTexture(elemPath(root, "Texture", xt.Name, i), xt); err != nil {
			return nil, err
		}
	}
	for i, xm := range doc.Materials {
		if err := p.parseMaterial(elemPath(root, "Material", xm.Name, i), xm); err != nil {
			return nil, err
		}
	}

	objects, lightDefs := doc.Objects, doc.Lights
	for _, block := range doc.Scenes {
		objects = append(objects, block.Objects...)
		lightDefs = append(lightDefs, block.Lights...)
	}

	for i, xo := range objects {
		path := elemPath(root, "Object", xo.Name, i)
		obj, err := p.parseObject(path, xo, nil)
		if err != nil {
			return nil, err
		}
		if obj == nil {
			continue
		}
		if xo.Name != "" {
			if _, dup := p.named[xo.Name]; dup {
				return nil, parseErr(path, "duplicate object name %q", xo.Name)
			}
			p.named[xo.Name] = obj
		}
		s.AddObject(obj)
	}

	for i, xl := range lightDefs {
		light, err := p.parseLight(elemPath(root, "Light", xl.Type, i), xl)
		if err != nil {
			return nil, err
		}
		s.AddLight(light)
	}

	if err := s.Preprocess(); err != nil {
		return nil, &ParseError{Path: root, Err: err}
	}
	logger.Printf("loaded scene: %d objects (%d primitives), %d lights\n",
		len(s.Objects), s.GetPrimitiveCount(), len(s.Lights))
	return s, nil
}

// elemPath names a child element by its name attribute, or by index when unnamed
func elemPath(parent, elem, name string, index int) string {
	if name != "" {
		return fmt.Sprintf("%s/%s[%s]", parent, elem, name)
	}
	return fmt.Sprintf("%s/%s[%d]", parent, elem, index)
}

func (p *sceneParser) parseOptions(path string, xo *xmlOptions) (config.RenderOptions, error) {
	opts := config.DefaultRenderOptions()
	if xo == nil {
		return opts, &ParseError{Path: path, Err: ErrMissingField}
	}

	var err error
	requiredInts := []struct {
		name string
		src  *string
		dst  *int
	}{
		{"Width", xo.Width, &opts.Width},
		{"Height", xo.Height, &opts.Height},
		{"MaxDepth", xo.MaxDepth, &opts.MaxDepth},
		{"Samples", xo.Samples, &opts.Samples},
	}
	for _, f := range requiredInts {
		if *f.dst, err = requiredInt(path+"/"+f.name, f.src); err != nil {
			return opts, err
		}
	}

	requiredFloats := []struct {
		name string
		src  *string
		dst  *float64
	}{
		{"FoV", xo.FoV, &opts.FoV},
		{"WorldToScreen", xo.WorldToScreen, &opts.WorldToScreen},
	}
	for _, f := range requiredFloats {
		if *f.dst, err = requiredFloat(path+"/"+f.name, f.src); err != nil {
			return opts, err
		}
	}

	requiredVecs := []struct {
		name string
		src  *string
		dst  *core.Vec3
	}{
		{"Eye", xo.Eye, &opts.Eye},
		{"LookAt", xo.LookAt, &opts.LookAt},
		{"CameraUp", xo.CameraUp, &opts.CameraUp},
		{"Background", xo.Background, &opts.Background},
	}
	for _, f := range requiredVecs {
		if *f.dst, err = requiredVec3(path+"/"+f.name, f.src); err != nil {
			return opts, err
		}
	}

	optionalFloats := []struct {
		name string
		src  *string
		dst  *float64
	}{
		{"Aperture", xo.Aperture, &opts.Aperture},
		{"Focus", xo.Focus, &opts.Focus},
		{"Gamma", xo.Gamma, &opts.Gamma},
	}
	for _, f := range optionalFloats {
		if f.src == nil {
			continue
		}
		if *f.dst, err = parseFloat(path+"/"+f.name, *f.src); err != nil {
			return opts, err
		}
	}

	if xo.Supersample != nil {
		if opts.Supersample, err = parseInt(path+"/Supersample", *xo.Supersample); err != nil {
			return opts, err
		}
	}
	if xo.Seed != nil {
		seed, err := strconv.ParseInt(strings.TrimSpace(*xo.Seed), 10, 64)
		if err != nil {
			return opts, &ParseError{Path: path + "/Seed", Err: err}
		}
		opts.Seed = seed
	}
	if xo.SampleOneLight != nil {
		if opts.SampleOneLight, err = parseBool(path+"/SampleOneLight", *xo.SampleOneLight); err != nil {
			return opts, err
		}
	}
	if xo.Integrator != nil {
		name := strings.ToLower(strings.TrimSpace(*xo.Integrator))
		if name != config.IntegratorWhitted && name != config.IntegratorDirect {
			return opts, parseErr(path+"/Integrator", "unknown integrator %q", name)
		}
		opts.Integrator = name
	}
	return opts, nil
}

func (p *sceneParser) parseTexture(path string, xt xmlTexture) error {
	if xt.Name == "" {
		return parseErr(path, "texture needs a name")
	}
	if _, dup := p.textures[xt.Name]; dup {
		return parseErr(path, "duplicate texture name %q", xt.Name)
	}

	var tex texture.Texture
	switch xt.Type {
	case "Flat":
		c, err := requiredVec3(path+"/Color", xt.Color)
		if err != nil {
			return err
		}
		tex = texture.NewFlat(c)
	case "Checked":
		a, err := requiredVec3(path+"/ColorA", xt.ColorA)
		if err != nil {
			return err
		}
		b, err := requiredVec3(path+"/ColorB", xt.ColorB)
		if err != nil {
			return err
		}
		ss, err := requiredFloat(path+"/ScaleS", xt.ScaleS)
		if err != nil {
			return err
		}
		st, err := requiredFloat(path+"/ScaleT", xt.ScaleT)
		if err != nil {
			return err
		}
		checked, err := texture.NewChecked(a, b, ss, st)
		if err != nil {
			return &ParseError{Path: path, Err: err}
		}
		tex = checked
	case "Image":
		file, err := required(path+"/File", xt.File)
		if err != nil {
			return err
		}
		img, err := LoadTexture(p.resolve(file))
		if err != nil {
			return &ParseError{Path: path + "/File", Err: err}
		}
		tex = img
	default:
		return parseErr(path, "unknown texture type %q", xt.Type)
	}

	p.textures[xt.Name] = tex
	return nil
}

func (p *sceneParser) parseMaterial(path string, xm xmlMaterial) error {
	if xm.Name == "" {
		return parseErr(path, "material needs a name")
	}
	if _, dup := p.materials[xm.Name]; dup {
		return parseErr(path, "duplicate material name %q", xm.Name)
	}

	refraction := 1.0
	if xm.Refraction != nil {
		var err error
		if refraction, err = parseFloat(path+"/@refraction", *xm.Refraction); err != nil {
			return err
		}
	}
	shadow := true
	if xm.Shadow != nil {
		var err error
		if shadow, err = parseBool(path+"/@shadow", *xm.Shadow); err != nil {
			return err
		}
	}

	m := material.New(xm.Name, refraction, shadow)
	for i, lobe := range xm.Lobes {
		lobePath := fmt.Sprintf("%s/%s[%d]", path, lobe.XMLName.Local, i)
		tint, err := p.lobeTint(lobePath, lobe)
		if err != nil {
			return err
		}

		switch lobe.XMLName.Local {
		case "Diffuse":
			m.AddDiffuse(tint)
		case "Glossy":
			exponent, err := requiredFloat(lobePath+"/@exponent", lobe.Exponent)
			if err != nil {
				return err
			}
			if exponent < 0 {
				return parseErr(lobePath+"/@exponent", "must not be negative, got %g", exponent)
			}
			m.AddGlossy(tint, exponent)
		case "Specular":
			m.AddSpecular(tint)
		case "Transmission":
			m.AddTransmission(tint)
		default:
			return parseErr(lobePath, "unknown lobe %q", lobe.XMLName.Local)
		}
	}

	p.materials[xm.Name] = m
	return nil
}

// lobeTint resolves a lobe's texture attribute, falling back to a flat color
func (p *sceneParser) lobeTint(path string, lobe xmlLobe) (texture.Texture, error) {
	if lobe.Texture != nil {
		tex, ok := p.textures[*lobe.Texture]
		if !ok {
			return nil, parseErr(path+"/@texture", "unknown texture %q", *lobe.Texture)
		}
		return tex, nil
	}
	c, err := requiredVec3(path+"/@color", lobe.Color)
	if err != nil {
		return nil, err
	}
	return texture.NewFlat(c), nil
}

// parseObject builds one object and its children. A degenerate object is
// logged and dropped by returning (nil, nil).
func (p *sceneParser) parseObject(path string, xo xmlObject, inherited *material.Material) (geometry.Object, error) {
	xf := core.IdentityTransform()
	if xo.Transform != nil {
		var err error
		if xf, err = parseTransform(path+"/Transform", xo.Transform); err != nil {
			return nil, err
		}
	}

	mat := inherited
	if xo.Material != nil {
		name := strings.TrimSpace(*xo.Material)
		m, ok := p.materials[name]
		if !ok {
			return nil, parseErr(path+"/Material", "unknown material %q", name)
		}
		mat = m
	}
	if mat == nil {
		mat = p.defaultMaterial
	}

	obj, err := p.buildObject(path, xo, xf, mat)
	var degenerate *geometry.DegenerateError
	if errors.As(err, &degenerate) {
		p.logger.Printf("dropping %s: %v\n", path, err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (p *sceneParser) buildObject(path string, xo xmlObject, xf core.Transform, mat *material.Material) (geometry.Object, error) {
	switch xo.Type {
	case "Plane":
		return geometry.NewPlane(xf, mat), nil
	case "Sphere":
		radius, err := requiredFloat(path+"/Radius", xo.Radius)
		if err != nil {
			return nil, err
		}
		return geometry.NewSphere(radius, xf, mat)
	case "Cylinder":
		height, err := requiredFloat(path+"/Height", xo.Height)
		if err != nil {
			return nil, err
		}
		radius, err := requiredFloat(path+"/Radius", xo.Radius)
		if err != nil {
			return nil, err
		}
		return geometry.NewCylinder(radius, height, xf, mat)
	case "Box":
		dim, err := requiredVec3(path+"/Dim", xo.Dim)
		if err != nil {
			return nil, err
		}
		return geometry.NewBox(dim, xf, mat)
	case "Triangle":
		var v [3]core.Vec3
		for i, src := range []*string{xo.V0, xo.V1, xo.V2} {
			var err error
			if v[i], err = requiredVec3(fmt.Sprintf("%s/V%d", path, i), src); err != nil {
				return nil, err
			}
		}
		return geometry.NewTriangle(v[0], v[1], v[2], xf, mat)
	case "Mesh":
		file, err := required(path+"/File", xo.File)
		if err != nil {
			return nil, err
		}
		data, err := LoadPLY(p.resolve(file))
		if err != nil {
			return nil, &ParseError{Path: path + "/File", Err: err}
		}
		mesh, dropped, err := NewMesh(data, xf, mat)
		if dropped > 0 {
			p.logger.Printf("%s: dropped %d degenerate faces\n", path, dropped)
		}
		if err != nil {
			return nil, err
		}
		return mesh, nil
	case "Group":
		var children []geometry.Object
		for i, xc := range xo.Children {
			child, err := p.parseObject(elemPath(path, "Object", xc.Name, i), xc, mat)
			if err != nil {
				return nil, err
			}
			if child != nil {
				children = append(children, child)
			}
		}
		if len(children) == 0 {
			return nil, &geometry.DegenerateError{Kind: "group", Reason: "no children"}
		}
		return geometry.NewGroup(children, xf, mat), nil
	default:
		return nil, parseErr(path, "unknown object type %q", xo.Type)
	}
}

// parseTransform composes the operations in document order: the first
// listed is applied to the object first.
func parseTransform(path string, xt *xmlTransform) (core.Transform, error) {
	xf := core.IdentityTransform()
	for i, op := range xt.Ops {
		opPath := fmt.Sprintf("%s/%s[%d]", path, op.XMLName.Local, i)
		var step core.Transform

		switch op.XMLName.Local {
		case "Translate":
			v, err := parseVec3(opPath, op.Value)
			if err != nil {
				return xf, err
			}
			step = core.Translate(v)
		case "Scale":
			v, err := parseScale(opPath, op.Value)
			if err != nil {
				return xf, err
			}
			step = core.Scale(v)
		case "RotateX", "RotateY", "RotateZ":
			deg, err := parseFloat(opPath, op.Value)
			if err != nil {
				return xf, err
			}
			rad := deg * math.Pi / 180
			switch op.XMLName.Local {
			case "RotateX":
				step = core.RotateX(rad)
			case "RotateY":
				step = core.RotateY(rad)
			default:
				step = core.RotateZ(rad)
			}
		case "Matrix":
			vals, err := parseFloats(opPath, op.Value, 16)
			if err != nil {
				return xf, err
			}
			var m core.Mat4
			for r := 0; r < 4; r++ {
				copy(m[r][:], vals[4*r:4*r+4])
			}
			if step, err = core.NewTransform(m); err != nil {
				return xf, &ParseError{Path: opPath, Err: err}
			}
		default:
			return xf, parseErr(opPath, "unknown transform %q", op.XMLName.Local)
		}

		xf = step.Compose(xf)
	}
	return xf, nil
}

// parseScale accepts one uniform factor or three per-axis factors
func parseScale(path, s string) (core.Vec3, error) {
	var v core.Vec3
	if len(strings.Fields(s)) == 1 {
		k, err := parseFloat(path, s)
		if err != nil {
			return v, err
		}
		v = core.NewVec3(k, k, k)
	} else {
		var err error
		if v, err = parseVec3(path, s); err != nil {
			return v, err
		}
	}
	if v.X == 0 || v.Y == 0 || v.Z == 0 {
		return v, parseErr(path, "scale factors must be non-zero")
	}
	return v, nil
}

func (p *sceneParser) parseLight(path string, xl xmlLight) (lights.Light, error) {
	switch xl.Type {
	case "Point":
		intensity, err := requiredVec3(path+"/Intensity", xl.Intensity)
		if err != nil {
			return nil, err
		}
		pos, err := requiredVec3(path+"/Position", xl.Position)
		if err != nil {
			return nil, err
		}
		return lights.NewPointLight(pos, intensity), nil
	case "Directional":
		irradiance, err := requiredVec3(path+"/Irradiance", xl.Irradiance)
		if err != nil {
			return nil, err
		}
		dir, err := requiredVec3(path+"/Direction", xl.Direction)
		if err != nil {
			return nil, err
		}
		if dir.IsZero() {
			return nil, parseErr(path+"/Direction", "must not be zero")
		}
		return lights.NewDirectionalLight(dir.Normalize(), irradiance), nil
	case "Area":
		name, err := required(path+"/Object", xl.Object)
		if err != nil {
			return nil, err
		}
		obj, ok := p.named[name]
		if !ok {
			return nil, parseErr(path+"/Object", "no top-level object named %q", name)
		}
		radiance, err := requiredVec3(path+"/Radiance", xl.Radiance)
		if err != nil {
			return nil, err
		}
		return lights.NewAreaLight(obj, radiance), nil
	default:
		return nil, parseErr(path, "unknown light type %q", xl.Type)
	}
}

func (p *sceneParser) resolve(file string) string {
	if filepath.IsAbs(file) || p.dir == "" {
		return file
	}
	return filepath.Join(p.dir, file)
}

func required(path string, s *string) (string, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "", &ParseError{Path: path, Err: ErrMissingField}
	}
	return strings.TrimSpace(*s), nil
}

func requiredInt(path string, s *string) (int, error) {
	v, err := required(path, s)
	if err != nil {
		return 0, err
	}
	return parseInt(path, v)
}

func requiredFloat(path string, s *string) (float64, error) {
	v, err := required(path, s)
	if err != nil {
		return 0, err
	}
	return parseFloat(path, v)
}

func requiredVec3(path string, s *string) (core.Vec3, error) {
	v, err := required(path, s)
	if err != nil {
		return core.Vec3{}, err
	}
	return parseVec3(path, v)
}

func parseInt(path, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &ParseError{Path: path, Err: err}
	}
	return v, nil
}

func parseFloat(path, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &ParseError{Path: path, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, parseErr(path, "value must be finite, got %s", strings.TrimSpace(s))
	}
	return v, nil
}

func parseBool(path, s string) (bool, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, &ParseError{Path: path, Err: err}
	}
	return v, nil
}

// parseFloats reads exactly n whitespace-separated numbers
func parseFloats(path, s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, parseErr(path, "expected %d numbers, got %d", n, len(fields))
	}
	vals := make([]float64, n)
	for i, f := range fields {
		v, err := parseFloat(path, f)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func parseVec3(path, s string) (core.Vec3, error) {
	vals, err := parseFloats(path, s, 3)
	if err != nil {
		return core.Vec3{}, err
	}
	return core.NewVec3(vals[0], vals[1], vals[2]), nil
}
