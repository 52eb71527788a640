package geometry

import (
	"sort"

	"github.com/df07/go-lightpath/pkg/core"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	Objects     []Object // Multiple objects for leaf nodes (nil for internal nodes)
}

// BVH accelerates ray queries over a set of objects by their parent-space bounds.
// Unbounded objects (planes) are kept aside and always tested.
type BVH struct {
	Root      *BVHNode
	Unbounded []Object
}

// Leaf threshold: if we have this many or fewer objects, store them in a leaf node
const leafThreshold = 8

// NewBVH constructs a BVH from a slice of objects
func NewBVH(objects []Object) *BVH {
	bvh := &BVH{}
	var bounded []Object
	for _, obj := range objects {
		if obj.Bounds().IsInfinite() {
			bvh.Unbounded = append(bvh.Unbounded, obj)
		} else {
			bounded = append(bounded, obj)
		}
	}
	if len(bounded) > 0 {
		bvh.Root = buildBVH(bounded)
	}
	return bvh
}

// buildBVH recursively builds the BVH using a median split along the longest axis
func buildBVH(objects []Object) *BVHNode {
	bounds := objects[0].Bounds()
	for _, obj := range objects[1:] {
		bounds = bounds.Union(obj.Bounds())
	}

	if len(objects) <= leafThreshold {
		return &BVHNode{BoundingBox: bounds, Objects: objects}
	}

	axis := bounds.LongestAxis()
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Bounds().Center().Component(axis) < objects[j].Bounds().Center().Component(axis)
	})

	mid := len(objects) / 2
	return &BVHNode{
		BoundingBox: bounds,
		Left:        buildBVH(objects[:mid]),
		Right:       buildBVH(objects[mid:]),
	}
}

// Intersect returns the nearest hit among all objects. The ray is in the
// objects' parent space. Root is set to the object at this level, so the
// outermost BVH leaves the top-level object in it.
func (bvh *BVH) Intersect(ray core.Ray) (*SurfaceInfo, bool) {
	var closest *SurfaceInfo
	for _, obj := range bvh.Unbounded {
		if hit, ok := IntersectInParent(obj, ray); ok {
			hit.Root = obj
			closest = hit
			ray.TMax = hit.T
		}
	}
	if bvh.Root != nil {
		if hit, ok := bvh.hitNode(bvh.Root, ray); ok {
			closest = hit
		}
	}
	return closest, closest != nil
}

// hitNode recursively tests ray intersection with BVH nodes
func (bvh *BVH) hitNode(node *BVHNode, ray core.Ray) (*SurfaceInfo, bool) {
	if !node.BoundingBox.Hit(ray, 0, ray.TMax) {
		return nil, false
	}

	var closest *SurfaceInfo
	if node.Objects != nil {
		for _, obj := range node.Objects {
			if hit, ok := IntersectInParent(obj, ray); ok {
				hit.Root = obj
				closest = hit
				ray.TMax = hit.T
			}
		}
		return closest, closest != nil
	}

	for _, child := range [2]*BVHNode{node.Left, node.Right} {
		if child == nil {
			continue
		}
		if hit, ok := bvh.hitNode(child, ray); ok {
			closest = hit
			ray.TMax = hit.T
		}
	}
	return closest, closest != nil
}

// Occluded reports whether any object blocks the ray
func (bvh *BVH) Occluded(ray core.Ray) bool {
	for _, obj := range bvh.Unbounded {
		if CastShadowInParent(obj, ray) {
			return true
		}
	}
	return bvh.Root != nil && bvh.occludedNode(bvh.Root, ray)
}

func (bvh *BVH) occludedNode(node *BVHNode, ray core.Ray) bool {
	if !node.BoundingBox.Hit(ray, 0, ray.TMax) {
		return false
	}
	if node.Objects != nil {
		for _, obj := range node.Objects {
			if CastShadowInParent(obj, ray) {
				return true
			}
		}
		return false
	}
	return (node.Left != nil && bvh.occludedNode(node.Left, ray)) ||
		(node.Right != nil && bvh.occludedNode(node.Right, ray))
}

// Bounds returns the union of every object's bounds
func (bvh *BVH) Bounds() core.AABB {
	if len(bvh.Unbounded) > 0 {
		return core.InfiniteAABB()
	}
	if bvh.Root == nil {
		return core.AABB{}
	}
	return bvh.Root.BoundingBox
}

// stats returns the number of nodes and leaves, for tests
func (bvh *BVH) stats() (nodes, leaves int) {
	var walk func(n *BVHNode)
	walk = func(n *BVHNode) {
		if n == nil {
			return
		}
		nodes++
		if n.Objects != nil {
			leaves++
			return
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(bvh.Root)
	return nodes, leaves
}
