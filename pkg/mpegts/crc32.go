// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

// CRC-32/MPEG-2, polynomial 0x04C11DB7, 不反转，不做结尾异或
//
// 标准库hash/crc32只支持反转的多项式，所以这里自己查表计算
//

const Crc32Init uint32 = 0xffffffff

const crc32Polynomial uint32 = 0x04C11DB7

var crc32Table [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ crc32Polynomial
			} else {
				crc <<= 1
			}
		}
		crc32Table[i] = crc
	}
}

// CalcCrc32 对buffer计算crc，首次计算时crc传入 Crc32Init
//
// 对包含末尾4字节CRC_32的完整section计算，结果为0说明校验通过
//
func CalcCrc32(crc uint32, buffer []byte) uint32 {
	for _, b := range buffer {
		crc = (crc << 8) ^ crc32Table[byte(crc>>24)^b]
	}
	return crc
}
