// Package magmawheel builds the MAGMA linear-algebra library for the GPU
// backend found on the host and packages it as a Python wheel.
//
// The package does not compile anything itself. It detects the backend,
// drives MAGMA's own make targets, stages the resulting shared library and
// headers into a package build tree and writes distributables from it.
//
// # Basic Usage
//
//	meta, buildCfg, err := magmawheel.LoadConfig(root, "", magmawheel.OSEnvironment())
//	if err != nil {
//	    return err
//	}
//
//	asm := magmawheel.NewAssembler(meta, buildCfg)
//	wheel, err := asm.Wheel(ctx)
//
// # Architecture
//
// The build flows through four components:
//
//	Assembler.Prepare (runs once)
//	├── Detector           (ROCM_PATH/bin/hipcc, CUDA_HOME/bin/nvcc)
//	├── BuilderFactory
//	│   ├── ROCmBuilder    (make.inc + three make targets)
//	│   ├── CUDABuilder    (notice only)
//	│   └── CPUBuilder     (pre-built library)
//	└── Stager             (lib/libmagma.so, include/)
//
// Every build step produces a StepResult. The first failing step stops the
// sequence and is reported as a *StepError carrying the command line and
// its exit status.
//
// # Environment
//
// Configuration reaches child processes through an Environment snapshot.
// Builders derive new snapshots for each command; the process environment
// is never modified.
//
// # Requirements
//
// Requires Go 1.25 or later. The ROCm build requires make and a ROCm
// installation; packaging alone works on any platform.
package magmawheel
