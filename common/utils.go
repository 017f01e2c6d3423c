package common

// Number is any element type stored in a flat vertex or index buffer.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Index is any type used to address a record in a flat buffer.
type Index interface {
	~int | ~int8 | ~int16 | ~int32 | ~uint | ~uint8 | ~uint16 | ~uint32
}

// GetVert3 returns record i of a stride-3 buffer. The result is capped so an
// append never writes into the next record.
func GetVert3[T Number, I Index](verts []T, i I) []T {
	j := int(i) * 3
	return verts[j : j+3 : j+3]
}

// GetVert4 returns record i of a stride-4 buffer, capped like GetVert3.
func GetVert4[T Number, I Index](verts []T, i I) []T {
	j := int(i) * 4
	return verts[j : j+4 : j+4]
}
