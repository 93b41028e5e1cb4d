//go:build !purego

package lane

import (
	"unsafe"

	"github.com/cwbudde/algo-vecmath"
	"github.com/tphakala/simd/c128"
	"github.com/tphakala/simd/f32"
	"github.com/tphakala/simd/f64"
)

func accelerate[F Float, C Complex](ops *Ops[F, C]) {
	switch o := any(ops).(type) {
	case *Ops[float64, complex128]:
		o.MulAcc = mulAcc128
		o.Mul = c128.Mul
		o.Scale = scale64
		o.Interleave2 = f64.Interleave2
		o.Name = "simd"
	case *Ops[float32, complex64]:
		o.Scale = f32.Scale
		o.Interleave2 = f32.Interleave2
		o.Name = "simd"
	}
}

// mulAcc128 multiplies into tmp with the complex SIMD kernel, then adds tmp
// to acc through a float64 view of both slices.
func mulAcc128(acc, a, b, tmp []complex128) {
	if len(acc) == 0 {
		return
	}
	tmp = tmp[:len(acc)]
	c128.Mul(tmp, a[:len(acc)], b[:len(acc)])
	vecmath.AddBlockInPlace(floatView(acc), floatView(tmp))
}

func scale64(dst, src []float64, s float64) {
	if len(dst) == 0 {
		return
	}
	if &dst[0] == &src[0] {
		vecmath.ScaleBlockInPlace(dst, s)
		return
	}
	f64.Scale(dst, src[:len(dst)], s)
}

func floatView(x []complex128) []float64 {
	return unsafe.Slice((*float64)(unsafe.Pointer(unsafe.SliceData(x))), 2*len(x))
}
