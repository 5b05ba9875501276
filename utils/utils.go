package utils

import (
	"unsafe"
)

func AbsInt(a int) int {
	if a < 0 {
		return -a
	} else {
		return a
	}
}

func MaxInt(a, b int) int {
	if a > b {
		return a
	} else {
		return b
	}
}

func MinInt(a, b int) int {
	if a > b {
		return b
	} else {
		return a
	}
}

func Bytes2String(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

func BytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return Bytes2String(a) == Bytes2String(b)
}
