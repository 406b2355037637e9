// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

const TsPacketSize = 188

const SyncByte uint8 = 0x47

// PidPat PAT固定使用的PID
const PidPat uint16 = 0x0000

// AdaptationFieldControl
//
// <iso13818-1.pdf> <Table 2-5> <page 38/174>
const (
	AdaptationFieldControlReserved = 0 // Reserved for future use by ISO/IEC
	AdaptationFieldControlNo       = 1 // No adaptation_field, payload only
	AdaptationFieldControlOnly     = 2 // Adaptation_field only, no payload
	AdaptationFieldControlFollowed = 3 // Adaptation_field followed by payload
)

// PsiId
const (
	TsPsiIdPas = 0x00 // program_association_section
	TsPsiIdCas = 0x01 // conditional_access_section (CA_section)
	TsPsiIdPms = 0x02 // TS_program_map_section
)

const (
	// 从table_id到last_section_number
	sectionHeaderLength = 8

	// 从transport_stream_id到last_section_number的5字节，加上末尾4字节CRC32
	sectionSyntaxOverhead = 5 + 4

	// <iso13818-1.pdf> <2.4.4.3> section_length的前两位必须为'00'，且不超过1021
	maxPatSectionLength = 1021

	patProgramLength = 4
)

// PatProgramsMaxDefault 一张PAT最多保存多少个program
const PatProgramsMaxDefault = 128
