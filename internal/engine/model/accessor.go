package model

import (
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/garment-paint/pkg/math"
)

// ErrAccessor reports accessor data that cannot be read.
var ErrAccessor = errors.New("model: malformed accessor")

func componentSize(ct gltf.ComponentType) int {
	switch ct {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	default:
		return 4
	}
}

func componentCount(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4:
		return 4
	default:
		return 0
	}
}

// accessorView locates the raw bytes behind an accessor. It returns the
// buffer slice starting at the first element and the element stride.
// Accessors without a buffer view read as zeros; sparse values are applied
// on a copy so the buffer itself is never modified.
func accessorView(doc *gltf.Document, idx uint32) (*gltf.Accessor, []byte, int, error) {
	if int(idx) >= len(doc.Accessors) {
		return nil, nil, 0, fmt.Errorf("%w: index %d out of range", ErrAccessor, idx)
	}
	acc := doc.Accessors[idx]

	elemSize := componentSize(acc.ComponentType) * componentCount(acc.Type)
	if elemSize == 0 {
		return nil, nil, 0, fmt.Errorf("%w: unsupported type %v", ErrAccessor, acc.Type)
	}

	var (
		data   []byte
		stride int
	)
	if acc.BufferView == nil {
		data, stride = make([]byte, elemSize*int(acc.Count)), elemSize
	} else {
		view, buf, err := bufferView(doc, *acc.BufferView)
		if err != nil {
			return nil, nil, 0, err
		}
		stride = int(view.ByteStride)
		if stride == 0 {
			stride = elemSize
		}
		start := int(acc.ByteOffset)
		end := start
		if acc.Count > 0 {
			end = start + stride*(int(acc.Count)-1) + elemSize
		}
		if end > len(buf) {
			return nil, nil, 0, fmt.Errorf("%w: accessor %d overruns its buffer", ErrAccessor, idx)
		}
		data = buf[start:end]
	}

	if acc.Sparse != nil {
		dense, err := applySparse(doc, acc, data, stride, elemSize)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("accessor %d: %w", idx, err)
		}
		data, stride = dense, elemSize
	}
	return acc, data, stride, nil
}

// bufferView returns a view and the bytes it covers.
func bufferView(doc *gltf.Document, idx uint32) (*gltf.BufferView, []byte, error) {
	if int(idx) >= len(doc.BufferViews) {
		return nil, nil, fmt.Errorf("%w: buffer view %d out of range", ErrAccessor, idx)
	}
	view := doc.BufferViews[idx]
	if int(view.Buffer) >= len(doc.Buffers) {
		return nil, nil, fmt.Errorf("%w: buffer %d out of range", ErrAccessor, view.Buffer)
	}
	data := doc.Buffers[view.Buffer].Data
	start, end := int(view.ByteOffset), int(view.ByteOffset)+int(view.ByteLength)
	if end > len(data) {
		return nil, nil, fmt.Errorf("%w: buffer view %d overruns its buffer", ErrAccessor, idx)
	}
	return view, data[start:end], nil
}

// applySparse returns a tightly packed copy of data with the sparse
// substitutions of acc written over it.
func applySparse(doc *gltf.Document, acc *gltf.Accessor, data []byte, stride, elemSize int) ([]byte, error) {
	count := int(acc.Count)
	dense := make([]byte, elemSize*count)
	for i := 0; i < count; i++ {
		copy(dense[i*elemSize:(i+1)*elemSize], data[i*stride:i*stride+elemSize])
	}

	sp := acc.Sparse
	n := int(sp.Count)
	idxSize := componentSize(sp.Indices.ComponentType)

	_, idxBuf, err := bufferView(doc, sp.Indices.BufferView)
	if err != nil {
		return nil, err
	}
	idxBuf, ok := window(idxBuf, int(sp.Indices.ByteOffset), n*idxSize)
	if !ok {
		return nil, fmt.Errorf("%w: sparse indices overrun their view", ErrAccessor)
	}
	_, valBuf, err := bufferView(doc, sp.Values.BufferView)
	if err != nil {
		return nil, err
	}
	valBuf, ok = window(valBuf, int(sp.Values.ByteOffset), n*elemSize)
	if !ok {
		return nil, fmt.Errorf("%w: sparse values overrun their view", ErrAccessor)
	}

	for i := 0; i < n; i++ {
		var target int
		switch sp.Indices.ComponentType {
		case gltf.ComponentUbyte:
			target = int(idxBuf[i])
		case gltf.ComponentUshort:
			target = int(binary.LittleEndian.Uint16(idxBuf[2*i:]))
		case gltf.ComponentUint:
			target = int(binary.LittleEndian.Uint32(idxBuf[4*i:]))
		default:
			return nil, fmt.Errorf("%w: unsupported sparse index type %v", ErrAccessor, sp.Indices.ComponentType)
		}
		if target >= count {
			return nil, fmt.Errorf("%w: sparse index %d past %d elements", ErrAccessor, target, count)
		}
		copy(dense[target*elemSize:], valBuf[i*elemSize:(i+1)*elemSize])
	}
	return dense, nil
}

func window(b []byte, offset, length int) ([]byte, bool) {
	if offset+length > len(b) {
		return nil, false
	}
	return b[offset : offset+length], true
}

// readComponent decodes component k of an element as float32, applying
// normalization for integer types when the accessor asks for it.
func readComponent(acc *gltf.Accessor, elem []byte, k int) float32 {
	switch acc.ComponentType {
	case gltf.ComponentFloat:
		return gomath.Float32frombits(binary.LittleEndian.Uint32(elem[4*k:]))
	case gltf.ComponentUbyte:
		v := float32(elem[k])
		if acc.Normalized {
			return v / 255
		}
		return v
	case gltf.ComponentByte:
		v := float32(int8(elem[k]))
		if acc.Normalized {
			return float32(gomath.Max(float64(v)/127, -1))
		}
		return v
	case gltf.ComponentUshort:
		v := float32(binary.LittleEndian.Uint16(elem[2*k:]))
		if acc.Normalized {
			return v / 65535
		}
		return v
	case gltf.ComponentShort:
		v := float32(int16(binary.LittleEndian.Uint16(elem[2*k:])))
		if acc.Normalized {
			return float32(gomath.Max(float64(v)/32767, -1))
		}
		return v
	default:
		return float32(binary.LittleEndian.Uint32(elem[4*k:]))
	}
}

func readVec3(doc *gltf.Document, idx uint32) ([]math.Vec3, error) {
	acc, data, stride, err := accessorView(doc, idx)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("%w: expected VEC3, got %v", ErrAccessor, acc.Type)
	}
	out := make([]math.Vec3, acc.Count)
	for i := range out {
		e := data[i*stride:]
		out[i] = math.Vec3{X: readComponent(acc, e, 0), Y: readComponent(acc, e, 1), Z: readComponent(acc, e, 2)}
	}
	return out, nil
}

func readVec2(doc *gltf.Document, idx uint32) ([]math.Vec2, error) {
	acc, data, stride, err := accessorView(doc, idx)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.AccessorVec2 {
		return nil, fmt.Errorf("%w: expected VEC2, got %v", ErrAccessor, acc.Type)
	}
	out := make([]math.Vec2, acc.Count)
	for i := range out {
		e := data[i*stride:]
		out[i] = math.Vec2{X: readComponent(acc, e, 0), Y: readComponent(acc, e, 1)}
	}
	return out, nil
}

func readIndices(doc *gltf.Document, idx uint32) ([]uint32, error) {
	acc, data, stride, err := accessorView(doc, idx)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("%w: expected SCALAR indices, got %v", ErrAccessor, acc.Type)
	}
	out := make([]uint32, acc.Count)
	for i := range out {
		e := data[i*stride:]
		switch acc.ComponentType {
		case gltf.ComponentUbyte:
			out[i] = uint32(e[0])
		case gltf.ComponentUshort:
			out[i] = uint32(binary.LittleEndian.Uint16(e))
		case gltf.ComponentUint:
			out[i] = binary.LittleEndian.Uint32(e)
		default:
			return nil, fmt.Errorf("%w: unsupported index component type %v", ErrAccessor, acc.ComponentType)
		}
	}
	return out, nil
}
