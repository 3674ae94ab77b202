// Package geometry provides the point containers that flow through the
// print-path organization pipeline.
//
// # Overview
//
// A slicer produces [Path]s: ordered polylines, optionally closed. Paths are
// grouped either horizontally into a [Layer] (one planar slice) or vertically
// into a [VerticalLayer] (one segment, a column of material stacked bottom to
// top). Both satisfy [PathGroup], which is what the organizer accepts.
//
// [PrintPoint] is a Point enriched with printing attributes. Positions are
// never changed once a PrintPoint is created; attribute passes only write
// their own fields.
//
// # Math
//
// [Point] is an alias of mgl64.Vec3 so that vector arithmetic comes from
// github.com/go-gl/mathgl. Bounding boxes use sdf.Box3 from
// github.com/deadsy/sdfx so they can be handed to the mesh kernel directly.
//
// # Serialization
//
// [MarshalLayers] and [UnmarshalLayers] convert path groups to and from the
// structured record used between pipeline stages. The layer_type tag
// ("horizontal_layer" or "vertical_layer") survives the round trip, so a
// reloaded stack keeps the traversal rules it was written with.
package geometry
