/*
DESCRIPTION
  kernels.go resolves the pixel-kernel capability set once at decoder
  construction, per spec.md section 9 ("Polymorphism over SIMD kernels"):
  rather than branch on CPU features per call, or store function pointers
  in a global dispatch table, a single implementation struct is chosen at
  init and threaded through the decoder.
*/

package avs2dec

import "golang.org/x/sys/cpu"

// pixelKernels is the capability set of pixel-buffer primitives that would,
// in the source decoder, be selected among C/SSE4/AVX2 implementations.
// This package only ships the portable Go kernels, but the seam is kept so
// a build carrying real SIMD intrinsics can slot in another implementation
// of this interface without touching any caller.
type pixelKernels interface {
	// blockAvg averages two same-sized prediction blocks into dst, rounding
	// as spec.md section 4.6 describes for bi-prediction.
	blockAvg(dst, a, b []int32, n int)
	// name identifies which tier was selected, for logging only.
	name() string
}

type genericKernels struct{}

func (genericKernels) name() string { return "generic" }

func (genericKernels) blockAvg(dst, a, b []int32, n int) {
	for i := 0; i < n; i++ {
		dst[i] = (a[i] + b[i] + 1) >> 1
	}
}

// avx2Kernels reuses the generic math (this package carries no hand-written
// assembly) but is kept distinct so decoder construction exercises the
// feature-detection seam described by spec.md section 9 and so a future
// assembly implementation has a concrete type to replace.
type avx2Kernels struct{ genericKernels }

func (avx2Kernels) name() string { return "avx2" }

// selectPixelKernels resolves the capability set once, at decoder
// construction, by inspecting CPU features via golang.org/x/sys/cpu.
func selectPixelKernels() pixelKernels {
	if cpu.X86.HasAVX2 {
		return avx2Kernels{}
	}
	return genericKernels{}
}
