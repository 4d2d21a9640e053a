package page

// TermsSection is one titled block of the warranty terms.
type TermsSection struct {
	Heading string   `json:"heading"`
	Items   []string `json:"items,omitempty"`
	Note    string   `json:"note,omitempty"`
}

// Terms is the full warranty terms document shown before submitting.
type Terms struct {
	Title    string         `json:"title"`
	Sections []TermsSection `json:"sections"`
}

// DefaultTerms are the i LexXa warranty terms.
var DefaultTerms = Terms{
	Title: "เงื่อนไขการรับประกัน",
	Sections: []TermsSection{
		{
			Heading: "เงื่อนไขการรับประกัน",
			Items: []string{
				"iLexXa รับประกันผลิตภัณฑ์ที่ซื้อในประเทศไทย โดยทั่วไป 1 ปี (บางรุ่น 6 เดือน) นับจากวันที่ซื้อ",
				"รับประกันความเสียหายจากการผลิต/การใช้งานที่ถูกต้อง ต้องส่งสินค้าตรวจสอบกับบริษัทฯ ทุกครั้ง",
				"หากเข้าเงื่อนไข บริษัทจะเปลี่ยนเฉพาะอุปกรณ์ที่เสีย โดยพิจารณาตามความเหมาะสม และอาจต้องมีการลงทะเบียน/ใบเสร็จสมบูรณ์",
				"การรับประกันไม่ครอบคลุมวัสดุสิ้นเปลือง/อุปกรณ์เสริมบางชนิด",
				"ความเสียหายจากการใช้งานผิดวิธี อุบัติเหตุ ภัยธรรมชาติ สัตว์/แมลง ฯลฯ อยู่นอกการรับประกัน",
			},
		},
		{
			Heading: "ข้อยกเว้นความคุ้มครอง",
			Items: []string{
				"ใช้งานผิดวัตถุประสงค์/ฝ่าฝืนคำแนะนำ",
				"ความเสียหายอันเนื่องจากน้ำ/สภาพอากาศ/การดัดแปลง/ซ่อมแซม/โปรแกรม",
				"สงคราม จลาจล ก่อการร้าย คำสั่งของรัฐ ฯลฯ",
				"ความสูญเสียจากอัคคีภัย/โจรกรรม",
				"สึกหรอ เสื่อมสภาพ แมลง/สัตว์ทำลาย การทำความสะอาด/บูรณะ",
				"ปฏิกิริยานิวเคลียร์/กัมมันตภาพรังสี",
				"การกระทำโดยเจตนาหรือประมาทเลินเล่ออย่างร้ายแรง",
				"การฉ้อโกง/ไม่ซื่อสัตย์",
			},
		},
		{
			Heading: "เงื่อนไขสิทธิประกันภัย",
			Note:    "ลูกค้าต้องลงทะเบียนภายใน 7 วันนับจากวันที่ซื้อสินค้า",
		},
	},
}
