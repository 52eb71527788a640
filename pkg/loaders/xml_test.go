package loaders

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-lightpath/pkg/config"
	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/geometry"
	"github.com/df07/go-lightpath/pkg/lights"
	"github.com/df07/go-lightpath/pkg/scene"
)

type recordLogger struct {
	lines []string
}

func (r *recordLogger) Printf(format string, args ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

const testOptions = `
  <Options>
    <Width>64</Width>
    <Height>48</Height>
    <FoV>1.0</FoV>
    <WorldToScreen>1</WorldToScreen>
    <Eye>0 0 5</Eye>
    <LookAt>0 0 0</LookAt>
    <CameraUp>0 1 0</CameraUp>
    <MaxDepth>4</MaxDepth>
    <Samples>2</Samples>
    <Background>0.1 0.2 0.3</Background>
  </Options>`

func testDoc(body string) string {
	return "<Tracer>" + testOptions + body + "\n</Tracer>"
}

func parseString(t *testing.T, src string) *scene.Scene {
	t.Helper()
	s, err := ParseScene(strings.NewReader(src), "", nil)
	if err != nil {
		t.Fatalf("ParseScene: %v", err)
	}
	return s
}

func TestParseSceneOptions(t *testing.T) {
	s := parseString(t, `<Render>`+strings.Replace(testOptions, "</Options>", `
    <Aperture>0.1</Aperture>
    <Focus>4</Focus>
    <Gamma>1.8</Gamma>
    <Integrator>Direct</Integrator>
    <SampleOneLight>true</SampleOneLight>
    <Seed>42</Seed>
    <Supersample>2</Supersample>
  </Options>`, 1)+`</Render>`)

	opts := s.Options
	want := config.DefaultRenderOptions()
	want.Width, want.Height = 64, 48
	want.FoV, want.WorldToScreen = 1.0, 1
	want.Eye = core.NewVec3(0, 0, 5)
	want.LookAt = core.NewVec3(0, 0, 0)
	want.CameraUp = core.NewVec3(0, 1, 0)
	want.MaxDepth, want.Samples = 4, 2
	want.Background = core.NewVec3(0.1, 0.2, 0.3)
	want.Aperture, want.Focus, want.Gamma = 0.1, 4, 1.8
	want.Integrator = config.IntegratorDirect
	want.SampleOneLight = true
	want.Seed = 42
	want.Supersample = 2

	if opts != want {
		t.Errorf("Unexpected options:\n got %+v\nwant %+v", opts, want)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("Parsed options do not validate: %v", err)
	}
}

func TestParseSceneShapesAndLights(t *testing.T) {
	s := parseString(t, testDoc(`
  <Texture name="checks" type="Checked">
    <ColorA>1 1 1</ColorA><ColorB>0 0 0</ColorB><ScaleS>4</ScaleS><ScaleT>4</ScaleT>
  </Texture>
  <Texture name="red" type="Flat"><Color>0.8 0.1 0.1</Color></Texture>
  <Material name="floor"><Diffuse texture="checks"/></Material>
  <Material name="plastic">
    <Diffuse texture="red"/>
    <Glossy color="0.3 0.3 0.3" exponent="40"/>
  </Material>
  <Material name="glass" refraction="1.5" shadow="false">
    <Specular color="1 1 1"/>
    <Transmission color="1 1 1"/>
  </Material>
  <Object type="Plane">
    <Transform><RotateX>-90</RotateX><Translate>0 -1 0</Translate></Transform>
    <Material>floor</Material>
  </Object>
  <Object name="ball" type="Sphere"><Radius>1</Radius><Material>plastic</Material></Object>
  <Object type="Cylinder"><Height>2</Height><Radius>0.5</Radius><Transform><Translate>5 0 0</Translate></Transform></Object>
  <Object type="Box"><Dim>1 1 1</Dim><Material>glass</Material></Object>
  <Object type="Triangle"><V0>0 0 0</V0><V1>1 0 0</V1><V2>0 1 0</V2></Object>
  <Light type="Point"><Intensity>5 5 5</Intensity><Position>0 4 0</Position></Light>
  <Light type="Directional"><Irradiance>1 1 1</Irradiance><Direction>0 -2 0</Direction></Light>`))

	if len(s.Objects) != 5 {
		t.Errorf("Expected 5 objects, got %d", len(s.Objects))
	}
	if len(s.Lights) != 2 {
		t.Fatalf("Expected 2 lights, got %d", len(s.Lights))
	}
	dir, ok := s.Lights[1].(*lights.DirectionalLight)
	if !ok || !dir.Direction.Equals(core.NewVec3(0, -1, 0), 1e-12) {
		t.Errorf("Expected a normalized directional light, got %+v", s.Lights[1])
	}

	glass := s.Objects[3].Material()
	if glass.Name != "glass" || glass.Refraction != 1.5 || glass.IsShadowCaster() || len(glass.BSDF.Lobes) != 2 {
		t.Errorf("Unexpected glass material: %v", glass)
	}
	if m := s.Objects[2].Material(); m.Name != "default" {
		t.Errorf("Expected the default material on an object without one, got %s", m.Name)
	}

	// the sphere is the nearest thing straight ahead of the eye
	hit, ok := s.Intersect(core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1)))
	if !ok || math.Abs(hit.T-4) > 1e-9 {
		t.Fatalf("Expected to hit the sphere at t=4, got %v %v", ok, hit)
	}
	if hit.Material().Name != "plastic" {
		t.Errorf("Expected plastic, got %s", hit.Material().Name)
	}

	// the floor faces up at y = -1
	hit, ok = s.Intersect(core.NewRay(core.NewVec3(3, 2, 0), core.NewVec3(0, -1, 0)))
	if !ok || math.Abs(hit.T-3) > 1e-9 || !hit.N.Equals(core.NewVec3(0, 1, 0), 1e-9) {
		t.Errorf("Expected the floor at t=3 facing +y, got %v %v", ok, hit)
	}
}

func TestParseSceneTransformOrder(t *testing.T) {
	tests := []struct {
		name  string
		ops   string
		wantT float64
	}{
		{"scale then translate", "<Scale>2</Scale><Translate>0 0 -5</Translate>", 3},
		{"translate then scale", "<Translate>0 0 -5</Translate><Scale>2</Scale>", 8},
		{"per-axis scale", "<Scale>1 1 3</Scale><Translate>0 0 -5</Translate>", 2},
		{"rotate in degrees", "<Translate>0 0 5</Translate><RotateY>180</RotateY>", 4},
		{"matrix", "<Matrix>1 0 0 0  0 1 0 0  0 0 1 -5  0 0 0 1</Matrix>", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parseString(t, testDoc(`
  <Object type="Sphere"><Radius>1</Radius><Transform>`+tt.ops+`</Transform></Object>`))

			hit, ok := s.Intersect(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)))
			if !ok {
				t.Fatal("Expected a hit")
			}
			if math.Abs(hit.T-tt.wantT) > 1e-9 {
				t.Errorf("Expected t=%g, got %g", tt.wantT, hit.T)
			}
		})
	}
}

func TestParseSceneGroupsAndAreaLights(t *testing.T) {
	s := parseString(t, testDoc(`
  <Material name="lamp" shadow="false"><Diffuse color="1 1 1"/></Material>
  <Material name="red"><Diffuse color="1 0 0"/></Material>
  <Scene>
    <Object name="pair" type="Group">
      <Material>red</Material>
      <Transform><Translate>0 0 -5</Translate></Transform>
      <Object type="Sphere"><Radius>1</Radius></Object>
      <Object type="Sphere"><Radius>1</Radius><Transform><Translate>3 0 0</Translate></Transform></Object>
    </Object>
    <Object name="panel" type="Triangle">
      <V0>-1 5 -1</V0><V1>1 5 -1</V1><V2>0 5 1</V2>
      <Material>lamp</Material>
    </Object>
    <Light type="Area"><Object>panel</Object><Radiance>4 4 4</Radiance></Light>
  </Scene>`))

	if len(s.Objects) != 2 || len(s.Lights) != 1 {
		t.Fatalf("Expected 2 objects and 1 light, got %d and %d", len(s.Objects), len(s.Lights))
	}
	if got := s.GetPrimitiveCount(); got != 3 {
		t.Errorf("Expected 3 primitives, got %d", got)
	}

	group, ok := s.Objects[0].(*geometry.Group)
	if !ok {
		t.Fatalf("Expected a group, got %T", s.Objects[0])
	}
	for i, child := range group.Children {
		if child.Material().Name != "red" {
			t.Errorf("Child %d should inherit the group material, got %s", i, child.Material().Name)
		}
	}

	hit, ok := s.Intersect(core.NewRay(core.NewVec3(3, 0, 0), core.NewVec3(0, 0, -1)))
	if !ok || math.Abs(hit.T-4) > 1e-9 || hit.Root != s.Objects[0] {
		t.Errorf("Expected to hit the second sphere at t=4 under the group, got %v %v", ok, hit)
	}

	area, ok := s.AreaLight(s.Objects[1])
	if !ok || area != s.Lights[0] {
		t.Fatal("Expected the panel to be registered as an area light")
	}
	hit, ok = s.Intersect(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0)))
	if !ok {
		t.Fatal("Expected to hit the panel")
	}
	// the panel's normal faces down toward the origin
	if le := s.Emitted(hit, hit.Wo); !le.Equals(core.NewVec3(4, 4, 4), 1e-12) {
		t.Errorf("Expected emitted radiance (4,4,4), got %v", le)
	}
}

func TestParseSceneDropsDegenerateObjects(t *testing.T) {
	logger := &recordLogger{}
	s, err := ParseScene(strings.NewReader(testDoc(`
  <Object name="dot" type="Sphere"><Radius>0</Radius></Object>
  <Object type="Triangle"><V0>0 0 0</V0><V1>1 1 1</V1><V2>2 2 2</V2></Object>
  <Object type="Group"><Object type="Sphere"><Radius>0</Radius></Object></Object>
  <Object type="Sphere"><Radius>1</Radius></Object>`)), "", logger)
	if err != nil {
		t.Fatalf("ParseScene: %v", err)
	}

	if len(s.Objects) != 1 {
		t.Errorf("Expected only the valid sphere to survive, got %d objects", len(s.Objects))
	}
	dropped := 0
	for _, line := range logger.lines {
		if strings.HasPrefix(line, "dropping ") {
			dropped++
		}
	}
	// the empty group's child is logged as well as the group itself
	if dropped != 4 {
		t.Errorf("Expected 4 dropped objects logged, got %d: %q", dropped, logger.lines)
	}
}

func TestParseSceneErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantPath string
		missing  bool
	}{
		{"no options", `<Tracer><Object type="Plane"/></Tracer>`, "Tracer/Options", true},
		{"missing fov", strings.Replace(testDoc(""), "<FoV>1.0</FoV>", "", 1), "Tracer/Options/FoV", true},
		{"bad width", strings.Replace(testDoc(""), "<Width>64</Width>", "<Width>wide</Width>", 1), "Tracer/Options/Width", false},
		{"short vector", strings.Replace(testDoc(""), "<Eye>0 0 5</Eye>", "<Eye>0 5</Eye>", 1), "Tracer/Options/Eye", false},
		{"unknown integrator", strings.Replace(testDoc(""), "</Options>", "<Integrator>path</Integrator></Options>", 1), "Tracer/Options/Integrator", false},
		{"sphere without radius", testDoc(`<Object name="ball" type="Sphere"/>`), "Tracer/Object[ball]/Radius", true},
		{"unknown object type", testDoc(`<Object type="Torus"/>`), "Tracer/Object[0]", false},
		{"unknown material", testDoc(`<Object type="Plane"><Material>gold</Material></Object>`), "Tracer/Object[0]/Material", false},
		{"group child error", testDoc(`<Object name="g" type="Group"><Object type="Box"/></Object>`), "Tracer/Object[g]/Object[0]/Dim", true},
		{"bad transform", testDoc(`<Object type="Plane"><Transform><Shear>1</Shear></Transform></Object>`), "Tracer/Object[0]/Transform/Shear[0]", false},
		{"zero scale", testDoc(`<Object type="Plane"><Transform><Scale>1 0 1</Scale></Transform></Object>`), "Tracer/Object[0]/Transform/Scale[0]", false},
		{"bad checker", testDoc(`<Texture name="c" type="Checked"><ColorA>1 1 1</ColorA><ColorB>0 0 0</ColorB><ScaleS>0</ScaleS><ScaleT>1</ScaleT></Texture>`), "Tracer/Texture[c]", false},
		{"glossy without exponent", testDoc(`<Material name="m"><Glossy color="1 1 1"/></Material>`), "Tracer/Material[m]/Glossy[0]/@exponent", true},
		{"lobe without color", testDoc(`<Material name="m"><Diffuse/></Material>`), "Tracer/Material[m]/Diffuse[0]/@color", true},
		{"unknown lobe", testDoc(`<Material name="m"><Velvet color="1 1 1"/></Material>`), "Tracer/Material[m]/Velvet[0]", false},
		{"unknown texture", testDoc(`<Material name="m"><Diffuse texture="wood"/></Material>`), "Tracer/Material[m]/Diffuse[0]/@texture", false},
		{"duplicate material", testDoc(`<Material name="m"><Diffuse color="1 1 1"/></Material><Material name="m"/>`), "Tracer/Material[m]", false},
		{"area light on missing object", testDoc(`<Light type="Area"><Object>lamp</Object><Radiance>1 1 1</Radiance></Light>`), "Tracer/Light[Area]/Object", false},
		{"point light without position", testDoc(`<Light type="Point"><Intensity>1 1 1</Intensity></Light>`), "Tracer/Light[Point]/Position", true},
		{"unknown light", testDoc(`<Light type="Spot"/>`), "Tracer/Light[Spot]", false},
		{"malformed xml", `<Tracer><Options>`, "document", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScene(strings.NewReader(tt.src), "", nil)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Expected ParseError, got %v", err)
			}
			if perr.Path != tt.wantPath {
				t.Errorf("Expected path %q, got %q (%v)", tt.wantPath, perr.Path, err)
			}
			if got := errors.Is(err, ErrMissingField); got != tt.missing {
				t.Errorf("errors.Is(err, ErrMissingField) = %v, want %v (%v)", got, tt.missing, err)
			}
		})
	}
}

func TestLoadSceneFileResolvesRelativeFiles(t *testing.T) {
	dir := t.TempDir()

	ply := `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
-1 -1 0
1 -1 0
0 1 0
3 0 1 2
`
	if err := os.WriteFile(filepath.Join(dir, "tri.ply"), []byte(ply), 0644); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	if err := WriteImage(filepath.Join(dir, "red.png"), img); err != nil {
		t.Fatal(err)
	}

	scenePath := filepath.Join(dir, "scene.xml")
	src := testDoc(`
  <Texture name="pic" type="Image"><File>red.png</File></Texture>
  <Material name="pictured"><Diffuse texture="pic"/></Material>
  <Object type="Mesh"><File>tri.ply</File><Material>pictured</Material>
    <Transform><Translate>0 0 -2</Translate></Transform>
  </Object>`)
	if err := os.WriteFile(scenePath, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSceneFile(scenePath, nil)
	if err != nil {
		t.Fatalf("LoadSceneFile: %v", err)
	}
	hit, ok := s.Intersect(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)))
	if !ok || math.Abs(hit.T-2) > 1e-9 {
		t.Fatalf("Expected to hit the mesh at t=2, got %v %v", ok, hit)
	}
	if hit.Material().Name != "pictured" {
		t.Errorf("Expected the mesh material, got %s", hit.Material().Name)
	}
}

func TestLoadSceneFileErrors(t *testing.T) {
	if _, err := LoadSceneFile(filepath.Join(t.TempDir(), "missing.xml"), nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}

	dir := t.TempDir()
	scenePath := filepath.Join(dir, "scene.xml")
	src := testDoc(`<Object type="Mesh"><File>missing.ply</File></Object>`)
	if err := os.WriteFile(scenePath, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadSceneFile(scenePath, nil)
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Path != "Tracer/Object[0]/File" {
		t.Errorf("Expected a ParseError at the mesh file, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected the missing mesh to unwrap to a not-exist error, got %v", err)
	}
}

func TestExampleScenes(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "scenes", "*.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Skip("no example scenes")
	}

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadSceneFile(path, nil)
			if err != nil {
				t.Fatalf("LoadSceneFile: %v", err)
			}
			if err := s.Options.Validate(); err != nil {
				t.Errorf("Options do not validate: %v", err)
			}
			if len(s.Objects) == 0 || len(s.Lights) == 0 {
				t.Errorf("Expected objects and lights, got %d and %d", len(s.Objects), len(s.Lights))
			}
		})
	}
}
