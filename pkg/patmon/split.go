// Copyright 2019, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package patmon

import "github.com/q191201771/tspat/pkg/mpegts"

// SplitTsPackets 将TS流数据切割成188字节的packet
//
// 下一个packet的首字节也是sync byte才认为找到了packet边界，否则逐字节后移重新寻找
// 末尾无法确认的部分通过rest返回，由调用方和后续数据拼接
//
// @return packets: 引用的是b的内存块
// @return skipped: 丢弃的字节数
//
func SplitTsPackets(b []byte) (packets [][]byte, rest []byte, skipped int) {
	i := 0
	for i+mpegts.TsPacketSize <= len(b) {
		if b[i] != mpegts.SyncByte {
			i++
			skipped++
			continue
		}

		next := i + mpegts.TsPacketSize
		if next < len(b) && b[next] != mpegts.SyncByte {
			i++
			skipped++
			continue
		}

		packets = append(packets, b[i:next])
		i = next
	}
	return packets, b[i:], skipped
}
