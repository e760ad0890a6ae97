// Package whirl provides GPU resource management for a WebGPU-style
// rendering backend.
//
// The root package owns device bring-up and the coarse-grained GPU
// objects: [Device], [Shader], [Texture] and [Sampler]. The graphics
// sub-package builds on these with typed buffers, vertex layouts,
// resource sets and render pipelines.
//
// A typical setup acquires a device, compiles a shader, and hands both
// to the graphics package:
//
//	dev, err := whirl.NewDevice("main")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Destroy()
//
//	shader, err := whirl.NewShader(dev, "shaders/mesh.wgsl")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer shader.Destroy()
//
// All types are safe to destroy more than once; Destroy is idempotent.
// whirl produces no log output by default, see [SetLogger].
package whirl
