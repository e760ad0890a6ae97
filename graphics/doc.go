// Package graphics provides typed GPU buffers, vertex layouts, resource
// sets and render pipelines on top of the whirl device layer.
//
// The central type is [TypedBuffer], a growable CPU-mirrored array of
// fixed-size items backed by a GPU buffer. Mutations (Write, Update,
// Extend, Truncate, Overwrite, Nuke) touch only the CPU mirror; Flush
// uploads the mirror to the GPU, reallocating with doubled capacity when
// the items no longer fit.
//
// Resource sets bind buffers, samplers and texture views to shader
// stages. A [ResourceSetLayout] declares binding kinds and visibility; a
// [ResourceSet] supplies matching resources and is validated against its
// layout entry by entry at build time.
//
// Pipelines are assembled with [PipelineBuilder], which requires a
// shader, a pipeline layout, draw/cull/blend modes and at least one
// vertex buffer layout, and fails fast on missing configuration.
//
// Precondition violations (out-of-range updates, empty builders, zero
// draw counts) panic; environment failures (device errors, destroyed
// resources, layout mismatches) return errors.
package graphics
