package execution

import (
	"math"

	"deobinject/internal/bytecode"
)

func foldInt(op bytecode.Opcode, a, b int32) (int32, bool) {
	switch op {
	case bytecode.Iadd:
		return a + b, true
	case bytecode.Isub:
		return a - b, true
	case bytecode.Imul:
		return a * b, true
	case bytecode.Idiv:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case bytecode.Irem:
		if b == 0 {
			return 0, false
		}
		return a % b, true
	case bytecode.Ishl:
		return a << (b & 0x1f), true
	case bytecode.Ishr:
		return a >> (b & 0x1f), true
	case bytecode.Iushr:
		return int32(uint32(a) >> (b & 0x1f)), true
	case bytecode.Iand:
		return a & b, true
	case bytecode.Ior:
		return a | b, true
	case bytecode.Ixor:
		return a ^ b, true
	}
	return 0, false
}

func foldLong(op bytecode.Opcode, a, b int64) (int64, bool) {
	switch op {
	case bytecode.Ladd:
		return a + b, true
	case bytecode.Lsub:
		return a - b, true
	case bytecode.Lmul:
		return a * b, true
	case bytecode.Ldiv:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case bytecode.Lrem:
		if b == 0 {
			return 0, false
		}
		return a % b, true
	case bytecode.Land:
		return a & b, true
	case bytecode.Lor:
		return a | b, true
	case bytecode.Lxor:
		return a ^ b, true
	}
	return 0, false
}

func foldLongShift(op bytecode.Opcode, a int64, n int32) int64 {
	s := uint(n & 0x3f)
	switch op {
	case bytecode.Lshl:
		return a << s
	case bytecode.Lshr:
		return a >> s
	}
	return int64(uint64(a) >> s)
}

func foldFloat(op bytecode.Opcode, a, b float64) float64 {
	switch op {
	case bytecode.Fadd, bytecode.Dadd:
		return a + b
	case bytecode.Fsub, bytecode.Dsub:
		return a - b
	case bytecode.Fmul, bytecode.Dmul:
		return a * b
	case bytecode.Fdiv, bytecode.Ddiv:
		return a / b
	}
	return math.Mod(a, b)
}

// compare implements fcmpl/fcmpg/dcmpl/dcmpg: NaN gives -1 for the l forms
// and 1 for the g forms.
func compare(a, b float64, nan int32) int32 {
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		return nan
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// toInt32 and toInt64 convert with Java's saturating semantics.
func toInt32(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

func toInt64(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}
