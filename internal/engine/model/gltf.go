package model

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/garment-paint/internal/logger"
	"github.com/Faultbox/garment-paint/pkg/math"
)

// ErrNoScene is returned for documents without a scene to display.
var ErrNoScene = errors.New("model: document has no scene")

// LoadGLTF reads a .gltf or .glb file. Relative image URIs resolve against
// the file's directory.
func LoadGLTF(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	m, err := FromDocument(doc, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("building model from %s: %w", path, err)
	}
	m.Name = filepath.Base(path)
	return m, nil
}

// FromDocument converts a decoded glTF document into a Model.
//
// A node whose mesh has one triangle primitive becomes a surface; a mesh
// with several primitives becomes a group of surfaces named "<name>_<i>".
// Non-triangle primitives are kept as KindOther so they never become
// paint candidates.
func FromDocument(doc *gltf.Document, baseDir string) (*Model, error) {
	if len(doc.Scenes) == 0 {
		return nil, ErrNoScene
	}
	sceneIdx := uint32(0)
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		sceneIdx = *doc.Scene
	}

	b := &builder{
		doc:     doc,
		baseDir: baseDir,
		images:  make(map[uint32]image.Image),
		visited: make(map[uint32]bool),
		log:     logger.Named("model"),
	}

	root := NewGroup("scene")
	for _, idx := range doc.Scenes[sceneIdx].Nodes {
		n, err := b.node(idx)
		if err != nil {
			return nil, err
		}
		if n != nil {
			root.Children = append(root.Children, n)
		}
	}
	return New("", root), nil
}

type builder struct {
	doc     *gltf.Document
	baseDir string
	images  map[uint32]image.Image
	visited map[uint32]bool
	log     *zap.Logger
}

func (b *builder) node(idx uint32) (*Node, error) {
	if int(idx) >= len(b.doc.Nodes) || b.visited[idx] {
		return nil, nil
	}
	b.visited[idx] = true
	gn := b.doc.Nodes[idx]

	n := &Node{Name: gn.Name, Kind: KindOther, Local: nodeTransform(gn)}
	if gn.Mesh != nil && int(*gn.Mesh) < len(b.doc.Meshes) {
		if err := b.attachMesh(n, b.doc.Meshes[*gn.Mesh]); err != nil {
			return nil, err
		}
	}
	for _, c := range gn.Children {
		child, err := b.node(c)
		if err != nil {
			return nil, err
		}
		if child != nil {
			n.Children = append(n.Children, child)
		}
	}
	if n.Kind == KindOther && len(n.Children) > 0 {
		n.Kind = KindGroup
	}
	return n, nil
}

func (b *builder) attachMesh(n *Node, mesh *gltf.Mesh) error {
	name := n.Name
	if name == "" {
		name = mesh.Name
	}
	n.Name = name

	if len(mesh.Primitives) == 1 {
		s, err := b.surface(name, mesh.Primitives[0])
		if err != nil {
			return err
		}
		if s != nil {
			n.Kind = KindSurface
			n.Surface = s
		}
		return nil
	}

	n.Kind = KindGroup
	for i, p := range mesh.Primitives {
		childName := fmt.Sprintf("%s_%d", name, i)
		s, err := b.surface(childName, p)
		if err != nil {
			return err
		}
		child := &Node{Name: childName, Kind: KindOther, Local: math.Identity()}
		if s != nil {
			child.Kind = KindSurface
			child.Surface = s
		}
		n.Children = append(n.Children, child)
	}
	return nil
}

// surface returns nil for primitives that are not triangle lists.
func (b *builder) surface(name string, p *gltf.Primitive) (*Surface, error) {
	if p.Mode != gltf.PrimitiveTriangles {
		b.log.Debug("skipping non-triangle primitive", zap.String("name", name))
		return nil, nil
	}
	posIdx, ok := p.Attributes["POSITION"]
	if !ok {
		return nil, nil
	}
	positions, err := readVec3(b.doc, posIdx)
	if err != nil {
		return nil, fmt.Errorf("%s positions: %w", name, err)
	}

	var uvs []math.Vec2
	if uvIdx, ok := p.Attributes["TEXCOORD_0"]; ok {
		if uvs, err = readVec2(b.doc, uvIdx); err != nil {
			return nil, fmt.Errorf("%s uvs: %w", name, err)
		}
	}

	var indices []uint32
	if p.Indices != nil {
		if indices, err = readIndices(b.doc, *p.Indices); err != nil {
			return nil, fmt.Errorf("%s indices: %w", name, err)
		}
		for _, i := range indices {
			if int(i) >= len(positions) {
				return nil, fmt.Errorf("%s: %w: index %d past %d vertices", name, ErrAccessor, i, len(positions))
			}
		}
	}

	s := NewSurface(name, positions, uvs, indices)
	if p.Material != nil && int(*p.Material) < len(b.doc.Materials) {
		b.applyMaterial(s.Material, b.doc.Materials[*p.Material])
	}
	b.log.Debug("surface loaded",
		zap.String("name", name),
		zap.Int("vertices", s.VertexCount()),
		zap.Bool("uv", s.HasUV),
	)
	return s, nil
}

func (b *builder) applyMaterial(dst *Material, src *gltf.Material) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	pbr := src.PBRMetallicRoughness
	if pbr == nil {
		return
	}
	if f := pbr.BaseColorFactor; f != nil {
		dst.Color.R = unit8(f[0])
		dst.Color.G = unit8(f[1])
		dst.Color.B = unit8(f[2])
		dst.Color.A = 255
		dst.Opacity = f[3]
	}
	if pbr.BaseColorTexture != nil {
		if img := b.texture(pbr.BaseColorTexture.Index); img != nil {
			dst.Source = img
			dst.Map = img
		}
	}
}

func (b *builder) texture(texIdx uint32) image.Image {
	if int(texIdx) >= len(b.doc.Textures) {
		return nil
	}
	tex := b.doc.Textures[texIdx]
	if tex.Source == nil || int(*tex.Source) >= len(b.doc.Images) {
		return nil
	}
	imgIdx := *tex.Source
	if img, ok := b.images[imgIdx]; ok {
		return img
	}
	img, err := b.decodeImage(b.doc.Images[imgIdx])
	if err != nil {
		b.log.Warn("texture decode failed", zap.Uint32("image", imgIdx), zap.Error(err))
	}
	b.images[imgIdx] = img
	return img
}

func (b *builder) decodeImage(gi *gltf.Image) (image.Image, error) {
	var data []byte
	switch {
	case gi.BufferView != nil:
		if int(*gi.BufferView) >= len(b.doc.BufferViews) {
			return nil, fmt.Errorf("%w: image buffer view out of range", ErrAccessor)
		}
		view := b.doc.BufferViews[*gi.BufferView]
		if int(view.Buffer) >= len(b.doc.Buffers) {
			return nil, fmt.Errorf("%w: image buffer out of range", ErrAccessor)
		}
		buf := b.doc.Buffers[view.Buffer].Data
		end := int(view.ByteOffset + view.ByteLength)
		if end > len(buf) {
			return nil, fmt.Errorf("%w: image overruns buffer", ErrAccessor)
		}
		data = buf[view.ByteOffset:end]
	case strings.HasPrefix(gi.URI, "data:"):
		comma := strings.IndexByte(gi.URI, ',')
		if comma < 0 {
			return nil, errors.New("malformed data uri")
		}
		decoded, err := base64.StdEncoding.DecodeString(gi.URI[comma+1:])
		if err != nil {
			return nil, fmt.Errorf("data uri: %w", err)
		}
		data = decoded
	case gi.URI != "":
		p, err := url.PathUnescape(gi.URI)
		if err != nil {
			p = gi.URI
		}
		if data, err = os.ReadFile(filepath.Join(b.baseDir, filepath.FromSlash(p))); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("image has no data")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// nodeTransform prefers an explicit matrix and falls back to TRS. Zero
// rotation and scale, as left by in-memory documents, mean identity.
func nodeTransform(n *gltf.Node) math.Mat4 {
	m := math.Mat4(n.Matrix)
	if !m.IsZero() && m != math.Identity() {
		return m
	}
	r := math.Quat{X: n.Rotation[0], Y: n.Rotation[1], Z: n.Rotation[2], W: n.Rotation[3]}
	if r == (math.Quat{}) {
		r = math.QuatIdentity()
	}
	s := math.V3(n.Scale)
	if s == (math.Vec3{}) {
		s = math.Vec3{X: 1, Y: 1, Z: 1}
	}
	return math.Compose(math.V3(n.Translation), r, s)
}

func unit8(f float32) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 255
	default:
		return uint8(f*255 + 0.5)
	}
}

// LoadFirst loads the first path that succeeds, logging each failure. It
// returns the model and the path it came from.
func LoadFirst(paths ...string) (*Model, string, error) {
	log := logger.Named("model")
	var errs []error
	seen := make(map[string]bool)
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		m, err := LoadGLTF(p)
		if err == nil {
			return m, p, nil
		}
		log.Error("model load failed", zap.String("path", p), zap.Error(err))
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, "", errors.New("model: no path to load")
	}
	return nil, "", errors.Join(errs...)
}
