package withholding

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	thaiDigits = [...]string{"ศูนย์", "หนึ่ง", "สอง", "สาม", "สี่", "ห้า", "หก", "เจ็ด", "แปด", "เก้า"}
	thaiPlaces = [...]string{"", "สิบ", "ร้อย", "พัน", "หมื่น", "แสน"}

	amountPrinter = message.NewPrinter(language.English)
)

// FormatAmount renders d as "1,234.50".
func FormatAmount(d decimal.Decimal) string {
	return amountPrinter.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// BahtText spells an amount the way Thai forms print it, e.g. 1021.50 is
// "หนึ่งพันยี่สิบเอ็ดบาทห้าสิบสตางค์" and 30 is "สามสิบบาทถ้วน". Negative amounts read as zero.
func BahtText(amount decimal.Decimal) string {
	amount = amount.Round(2)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	baht := amount.Truncate(0)
	satang := amount.Sub(baht).Shift(2).IntPart()

	out := readThai(baht.BigInt().String()) + "บาท"
	if satang == 0 {
		return out + "ถ้วน"
	}
	return out + readThai(decimal.NewFromInt(satang).String()) + "สตางค์"
}

// readThai reads a non-negative decimal digit string. Digits are taken in
// groups of six; every completed group is followed by ล้าน.
func readThai(digits string) string {
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return thaiDigits[0]
	}
	var b strings.Builder
	for len(digits) > 0 {
		head := len(digits) % 6
		if head == 0 {
			head = 6
		}
		b.WriteString(readGroup(digits[:head], b.Len() > 0))
		digits = digits[head:]
		if len(digits) > 0 {
			b.WriteString("ล้าน")
		}
	}
	return b.String()
}

// readGroup reads up to six digits. after is true when a non-zero higher
// group precedes this one, which turns a trailing one into เอ็ด.
func readGroup(group string, after bool) string {
	var b strings.Builder
	n := len(group)
	for i := 0; i < n; i++ {
		d := int(group[i] - '0')
		place := n - i - 1
		switch {
		case d == 0:
		case place == 1 && d == 1:
			b.WriteString("สิบ")
		case place == 1 && d == 2:
			b.WriteString("ยี่สิบ")
		case place == 0 && d == 1 && (after || hasNonZero(group[:n-1])):
			b.WriteString("เอ็ด")
		default:
			b.WriteString(thaiDigits[d] + thaiPlaces[place])
		}
	}
	return b.String()
}

func hasNonZero(s string) bool {
	return strings.Trim(s, "0") != ""
}
