package model

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	gomath "math"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/garment-paint/pkg/math"
)

// docBuilder assembles a single-buffer glTF document in memory.
type docBuilder struct {
	doc *gltf.Document
	buf bytes.Buffer
}

func newDocBuilder() *docBuilder {
	return &docBuilder{doc: &gltf.Document{
		Scenes:  []*gltf.Scene{{}},
		Buffers: []*gltf.Buffer{{}},
	}}
}

func (b *docBuilder) view(data []byte) uint32 {
	for b.buf.Len()%4 != 0 {
		b.buf.WriteByte(0)
	}
	off := uint32(b.buf.Len())
	b.buf.Write(data)
	b.doc.BufferViews = append(b.doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: off,
		ByteLength: uint32(len(data)),
	})
	return uint32(len(b.doc.BufferViews) - 1)
}

func (b *docBuilder) floats(typ gltf.AccessorType, count int, vals ...float32) uint32 {
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[4*i:], gomath.Float32bits(v))
	}
	bv := b.view(data)
	b.doc.Accessors = append(b.doc.Accessors, &gltf.Accessor{
		BufferView:    index(bv),
		ComponentType: gltf.ComponentFloat,
		Type:          typ,
		Count:         uint32(count),
	})
	return uint32(len(b.doc.Accessors) - 1)
}

func (b *docBuilder) indices(vals ...uint16) uint32 {
	data := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(data[2*i:], v)
	}
	bv := b.view(data)
	b.doc.Accessors = append(b.doc.Accessors, &gltf.Accessor{
		BufferView:    index(bv),
		ComponentType: gltf.ComponentUshort,
		Type:          gltf.AccessorScalar,
		Count:         uint32(len(vals)),
	})
	return uint32(len(b.doc.Accessors) - 1)
}

// quad returns a primitive for a unit quad, optionally with UVs.
func (b *docBuilder) quad(withUV bool) *gltf.Primitive {
	attrs := gltf.Attribute{
		"POSITION": b.floats(gltf.AccessorVec3, 4,
			0, 0, 0,
			1, 0, 0,
			1, 1, 0,
			0, 1, 0,
		),
	}
	if withUV {
		attrs["TEXCOORD_0"] = b.floats(gltf.AccessorVec2, 4,
			0, 0,
			1, 0,
			1, 1,
			0, 1,
		)
	}
	return &gltf.Primitive{
		Attributes: attrs,
		Indices:    index(b.indices(0, 1, 2, 0, 2, 3)),
		Mode:       gltf.PrimitiveTriangles,
	}
}

func (b *docBuilder) mesh(name string, prims ...*gltf.Primitive) uint32 {
	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{Name: name, Primitives: prims})
	return uint32(len(b.doc.Meshes) - 1)
}

func (b *docBuilder) node(n *gltf.Node, root bool) uint32 {
	b.doc.Nodes = append(b.doc.Nodes, n)
	idx := uint32(len(b.doc.Nodes) - 1)
	if root {
		b.doc.Scenes[0].Nodes = append(b.doc.Scenes[0].Nodes, idx)
	}
	return idx
}

func (b *docBuilder) finish() *gltf.Document {
	b.doc.Buffers[0].Data = b.buf.Bytes()
	b.doc.Buffers[0].ByteLength = uint32(b.buf.Len())
	return b.doc
}

func TestFromDocumentSurfaces(t *testing.T) {
	b := newDocBuilder()
	front := b.mesh("Shirt_Front", b.quad(true))
	button := b.mesh("Button", b.quad(false))
	b.node(&gltf.Node{Name: "Shirt_Front", Mesh: index(front)}, true)
	b.node(&gltf.Node{Name: "Button", Mesh: index(button), Translation: [3]float32{0, 0, 1}}, true)

	m, err := FromDocument(b.finish(), "")
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}

	surfaces := m.Surfaces()
	if len(surfaces) != 2 {
		t.Fatalf("got %d surfaces, want 2", len(surfaces))
	}
	if !surfaces[0].HasUV || surfaces[1].HasUV {
		t.Errorf("HasUV = %v, %v; want true, false", surfaces[0].HasUV, surfaces[1].HasUV)
	}
	if surfaces[0].TriangleCount() != 2 {
		t.Errorf("TriangleCount = %d, want 2", surfaces[0].TriangleCount())
	}

	cands := SelectCandidates(m)
	if len(cands) != 1 || cands[0].Name != "Shirt_Front" {
		t.Fatalf("candidates = %d, want only Shirt_Front", len(cands))
	}

	// TRS with zero rotation and scale must behave as identity.
	if z := surfaces[1].WorldPositions()[2].Z; z != 1 {
		t.Errorf("button z = %v, want 1", z)
	}
	if x := surfaces[1].WorldPositions()[2].X; x != 1 {
		t.Errorf("button x = %v, want 1", x)
	}
}

func TestFromDocumentMultiPrimitive(t *testing.T) {
	b := newDocBuilder()
	lines := b.quad(true)
	lines.Mode = gltf.PrimitiveLines
	mesh := b.mesh("Shirt", b.quad(true), b.quad(false), lines)
	b.node(&gltf.Node{Name: "Shirt", Mesh: index(mesh)}, true)

	m, err := FromDocument(b.finish(), "")
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}

	shirt := m.Root.Children[0]
	if shirt.Kind != KindGroup {
		t.Fatalf("shirt kind = %v, want group", shirt.Kind)
	}
	if len(shirt.Children) != 3 {
		t.Fatalf("got %d children, want 3", len(shirt.Children))
	}
	wantNames := []string{"Shirt_0", "Shirt_1", "Shirt_2"}
	wantKinds := []NodeKind{KindSurface, KindSurface, KindOther}
	for i, c := range shirt.Children {
		if c.Name != wantNames[i] || c.Kind != wantKinds[i] {
			t.Errorf("child %d = %s/%v, want %s/%v", i, c.Name, c.Kind, wantNames[i], wantKinds[i])
		}
	}

	cands := SelectCandidates(m)
	if len(cands) != 1 || cands[0].Name != "Shirt_0" {
		t.Errorf("expected only Shirt_0 as candidate, got %d", len(cands))
	}
}

func TestFromDocumentHierarchy(t *testing.T) {
	b := newDocBuilder()
	mesh := b.mesh("Sleeve", b.quad(true))
	child := b.node(&gltf.Node{Name: "Sleeve", Mesh: index(mesh)}, false)
	b.node(&gltf.Node{
		Name:     "Garment",
		Children: []uint32{child},
		Scale:    [3]float32{2, 2, 2},
	}, true)

	m, err := FromDocument(b.finish(), "")
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	if m.Root.Children[0].Kind != KindGroup {
		t.Errorf("parent kind = %v, want group", m.Root.Children[0].Kind)
	}
	s := m.Surfaces()[0]
	if p := s.WorldPositions()[2]; p.X != 2 || p.Y != 2 {
		t.Errorf("scaled vertex = %+v, want {2 2 0}", p)
	}
}

func TestFromDocumentMaterial(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.NRGBA{R: 200, A: 255})
	var pngData bytes.Buffer
	if err := png.Encode(&pngData, img); err != nil {
		t.Fatal(err)
	}

	b := newDocBuilder()
	bv := b.view(pngData.Bytes())
	b.doc.Images = []*gltf.Image{{MimeType: "image/png", BufferView: index(bv)}}
	b.doc.Textures = []*gltf.Texture{{Source: index(0)}}
	b.doc.Materials = []*gltf.Material{{
		Name: "cotton",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor:  &[4]float32{1, 0.5, 0, 1},
			BaseColorTexture: &gltf.TextureInfo{Index: 0},
		},
	}}
	prim := b.quad(true)
	prim.Material = index(0)
	mesh := b.mesh("Body", prim)
	b.node(&gltf.Node{Name: "Body", Mesh: index(mesh)}, true)

	m, err := FromDocument(b.finish(), "")
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	mat := m.Surfaces()[0].Material
	if mat.Name != "cotton" {
		t.Errorf("material name = %q", mat.Name)
	}
	if mat.Color != (color.RGBA{R: 255, G: 128, B: 0, A: 255}) {
		t.Errorf("color = %v", mat.Color)
	}
	if mat.Source == nil || mat.Map == nil {
		t.Fatal("base color texture not decoded")
	}
	if mat.Source.Bounds().Dx() != 4 || mat.Source.Bounds().Dy() != 2 {
		t.Errorf("texture size = %v", mat.Source.Bounds())
	}
}

func TestFromDocumentNoScene(t *testing.T) {
	_, err := FromDocument(&gltf.Document{}, "")
	if !errors.Is(err, ErrNoScene) {
		t.Errorf("err = %v, want ErrNoScene", err)
	}
}

func TestFromDocumentBadAccessor(t *testing.T) {
	b := newDocBuilder()
	prim := b.quad(true)
	b.doc.Accessors[prim.Attributes["POSITION"]].Count = 1000
	mesh := b.mesh("Broken", prim)
	b.node(&gltf.Node{Mesh: index(mesh)}, true)

	_, err := FromDocument(b.finish(), "")
	if !errors.Is(err, ErrAccessor) {
		t.Errorf("err = %v, want ErrAccessor", err)
	}
}

// sparseVec3 adds a VEC3 accessor of count zero-initialized elements with
// the given element indices replaced by values.
func (b *docBuilder) sparseVec3(count int, targets []uint16, values ...float32) uint32 {
	idx := make([]byte, 2*len(targets))
	for i, v := range targets {
		binary.LittleEndian.PutUint16(idx[2*i:], v)
	}
	vals := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(vals[4*i:], gomath.Float32bits(v))
	}
	acc := &gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec3,
		Count:         uint32(count),
	}
	if len(targets) > 0 {
		acc.Sparse = &gltf.Sparse{
			Count:   uint32(len(targets)),
			Indices: gltf.SparseIndices{BufferView: b.view(idx), ComponentType: gltf.ComponentUshort},
			Values:  gltf.SparseValues{BufferView: b.view(vals)},
		}
	}
	b.doc.Accessors = append(b.doc.Accessors, acc)
	return uint32(len(b.doc.Accessors) - 1)
}

func TestFromDocumentAccessorWithoutBufferView(t *testing.T) {
	b := newDocBuilder()
	prim := b.quad(true)
	prim.Attributes["POSITION"] = b.sparseVec3(4, nil)
	b.doc.Accessors[prim.Attributes["TEXCOORD_0"]].BufferView = nil
	mesh := b.mesh("Blank", prim)
	b.node(&gltf.Node{Mesh: index(mesh)}, true)

	m, err := FromDocument(b.finish(), "")
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	surfaces := m.Surfaces()
	if len(surfaces) != 1 {
		t.Fatalf("got %d surfaces, want 1", len(surfaces))
	}
	s := surfaces[0]
	if s.VertexCount() != 4 || !s.HasUV {
		t.Fatalf("vertices = %d uv = %v, want 4 true", s.VertexCount(), s.HasUV)
	}
	for i, p := range s.Positions {
		if p != (math.Vec3{}) {
			t.Errorf("position %d = %v, want zero", i, p)
		}
	}
	for i, uv := range s.UVs {
		if uv != (math.Vec2{}) {
			t.Errorf("uv %d = %v, want zero", i, uv)
		}
	}
}

func TestFromDocumentSparsePositions(t *testing.T) {
	b := newDocBuilder()
	prim := b.quad(false)
	prim.Attributes["POSITION"] = b.sparseVec3(4, []uint16{1, 3},
		2, 0, 0,
		0, 3, 0,
	)
	mesh := b.mesh("Sparse", prim)
	b.node(&gltf.Node{Mesh: index(mesh)}, true)

	m, err := FromDocument(b.finish(), "")
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	got := m.Surfaces()[0].Positions
	want := []math.Vec3{{}, {X: 2}, {}, {Y: 3}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFromDocumentSparseOverDenseData(t *testing.T) {
	b := newDocBuilder()
	prim := b.quad(false)
	pos := b.doc.Accessors[prim.Attributes["POSITION"]]
	override := b.sparseVec3(4, []uint16{0}, 9, 9, 9)
	pos.Sparse = b.doc.Accessors[override].Sparse
	mesh := b.mesh("Patched", prim)
	b.node(&gltf.Node{Mesh: index(mesh)}, true)

	doc := b.finish()
	before := append([]byte(nil), doc.Buffers[0].Data...)
	m, err := FromDocument(doc, "")
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	got := m.Surfaces()[0].Positions
	if got[0] != (math.Vec3{X: 9, Y: 9, Z: 9}) || got[2] != (math.Vec3{X: 1, Y: 1}) {
		t.Errorf("positions = %v", got)
	}
	if !bytes.Equal(before, doc.Buffers[0].Data) {
		t.Error("sparse substitution modified the buffer")
	}
}

func TestFromDocumentSparseIndexOutOfRange(t *testing.T) {
	b := newDocBuilder()
	prim := b.quad(false)
	prim.Attributes["POSITION"] = b.sparseVec3(4, []uint16{7}, 1, 1, 1)
	mesh := b.mesh("Bad", prim)
	b.node(&gltf.Node{Mesh: index(mesh)}, true)

	if _, err := FromDocument(b.finish(), ""); !errors.Is(err, ErrAccessor) {
		t.Errorf("err = %v, want ErrAccessor", err)
	}
}

func TestLoadGLTFMissingFile(t *testing.T) {
	if _, err := LoadGLTF("testdata/does-not-exist.glb"); err == nil {
		t.Error("expected error for missing file")
	}
}

func index(i uint32) *uint32 {
	return &i
}

func writeGLB(t *testing.T, doc *gltf.Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shirt.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}
	return path
}

func TestLoadGLTFFromDisk(t *testing.T) {
	b := newDocBuilder()
	mesh := b.mesh("Shirt_Front", b.quad(true))
	b.node(&gltf.Node{Name: "Shirt_Front", Mesh: index(mesh)}, true)
	path := writeGLB(t, b.finish())

	m, err := LoadGLTF(path)
	if err != nil {
		t.Fatalf("LoadGLTF: %v", err)
	}
	if m.Name != "shirt.glb" {
		t.Errorf("name = %q", m.Name)
	}
	if cands := SelectCandidates(m); len(cands) != 1 {
		t.Errorf("got %d candidates, want 1", len(cands))
	}
}

func TestLoadFirstFallsBack(t *testing.T) {
	b := newDocBuilder()
	mesh := b.mesh("Body", b.quad(true))
	b.node(&gltf.Node{Name: "Body", Mesh: index(mesh)}, true)
	good := writeGLB(t, b.finish())
	missing := filepath.Join(t.TempDir(), "hoodie.glb")

	m, used, err := LoadFirst(missing, good)
	if err != nil {
		t.Fatalf("LoadFirst: %v", err)
	}
	if used != good || m == nil {
		t.Errorf("used %q, want %q", used, good)
	}

	if _, _, err := LoadFirst(missing, missing); err == nil {
		t.Error("expected error when every path fails")
	}
	if _, _, err := LoadFirst(); err == nil {
		t.Error("expected error with no paths")
	}
}
