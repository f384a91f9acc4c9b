package utils

import "encoding/binary"

// Int16ToBytes converte um valor int16 para bytes (big-endian, formato S7 INT)
func Int16ToBytes(val int16) []byte {
	bytes := make([]byte, 2)
	binary.BigEndian.PutUint16(bytes, uint16(val))
	return bytes
}

// BytesToInt16 converte bytes para int16
func BytesToInt16(bytes []byte) int16 {
	return int16(binary.BigEndian.Uint16(bytes))
}

// ClampInt16 limita um int ao intervalo de um INT do PLC
func ClampInt16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
