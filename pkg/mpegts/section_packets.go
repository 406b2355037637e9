// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

// SplitSectionToTsPackets 将完整的section切割成ts packet
//
// @param h:            header模板，取其中的PID、transport_priority、transport_scrambling_control、continuity_counter
// @param section:      从table_id到CRC_32
// @param pointerField: 首个packet的pointer_field，pointer_field之后的填充字节写0xFF
//
// @return: 内存块为独立申请，长度为 TsPacketSize 的整数倍
//
func SplitSectionToTsPackets(h TsPacketHeader, section []byte, pointerField uint8) []byte {
	// pointer_field过大时，首个packet放不下任何section数据
	if 4+1+int(pointerField) >= TsPacketSize {
		pointerField = 0
	}

	firstBodySize := TsPacketSize - 4 - 1 - int(pointerField)
	num := 1
	if len(section) > firstBodySize {
		rest := len(section) - firstBodySize
		num += (rest + TsPacketSize - 4 - 1) / (TsPacketSize - 4)
	}

	buf := make([]byte, num*TsPacketSize)
	for i := range buf {
		buf[i] = 0xFF
	}

	lpos := 0
	for i := 0; i < num; i++ {
		packet := buf[i*TsPacketSize : (i+1)*TsPacketSize]

		ph := h
		ph.Sync = SyncByte
		ph.Err = 0
		ph.PayloadUnitStart = 0
		if i == 0 {
			ph.PayloadUnitStart = 1
		}
		ph.Adaptation = AdaptationFieldControlNo
		ph.Cc = (h.Cc + uint8(i)) & 0x0F
		PackTsPacketHeader(packet, ph)
		wpos := 4

		if i == 0 {
			packet[wpos] = pointerField
			wpos += 1 + int(pointerField)
		}

		lpos += copy(packet[wpos:], section[lpos:])
	}
	return buf
}
