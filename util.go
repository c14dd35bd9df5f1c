// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tagq

// roundToPow2 rounds n up to the next power of 2, with a floor of 2.
func roundToPow2(n int) uint64 {
	if n < 2 {
		return 2
	}
	v := uint64(n)
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	return v + 1
}
