package pipeline

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// FillMode is the engine-level draw mode of a draw call.
type FillMode uint8

// Fill modes.
const (
	FillModeTriangle FillMode = iota
	FillModeWireframe
	FillModePoint
	FillModePointList
	FillModeLineList
	FillModeLineLoop
	FillModeLineStrip
	FillModeTriangleStrip
	FillModeTriangleFan
)

// String returns the fill mode name.
func (m FillMode) String() string {
	switch m {
	case FillModeTriangle:
		return "Triangle"
	case FillModeWireframe:
		return "Wireframe"
	case FillModePoint:
		return "Point"
	case FillModePointList:
		return "PointList"
	case FillModeLineList:
		return "LineList"
	case FillModeLineLoop:
		return "LineLoop"
	case FillModeLineStrip:
		return "LineStrip"
	case FillModeTriangleStrip:
		return "TriangleStrip"
	case FillModeTriangleFan:
		return "TriangleFan"
	default:
		return fmt.Sprintf("FillMode(%d)", uint8(m))
	}
}

// Topology maps the fill mode to a primitive topology. Wireframe draws use a
// line list built by the mesh layer.
func (m FillMode) Topology() (gputypes.PrimitiveTopology, error) {
	switch m {
	case FillModeTriangle:
		return gputypes.PrimitiveTopologyTriangleList, nil
	case FillModeWireframe, FillModeLineList:
		return gputypes.PrimitiveTopologyLineList, nil
	case FillModePoint, FillModePointList:
		return gputypes.PrimitiveTopologyPointList, nil
	case FillModeLineStrip:
		return gputypes.PrimitiveTopologyLineStrip, nil
	case FillModeTriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedTopology, m)
	}
}

func topologyIndex(t gputypes.PrimitiveTopology) uint64 {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return 0
	case gputypes.PrimitiveTopologyLineList:
		return 1
	case gputypes.PrimitiveTopologyLineStrip:
		return 2
	case gputypes.PrimitiveTopologyTriangleStrip:
		return 4
	default:
		return 3
	}
}

func isStrip(t gputypes.PrimitiveTopology) bool {
	return t == gputypes.PrimitiveTopologyLineStrip || t == gputypes.PrimitiveTopologyTriangleStrip
}
