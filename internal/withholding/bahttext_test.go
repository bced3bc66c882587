package withholding

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBahtText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "ศูนย์บาทถ้วน"},
		{"1", "หนึ่งบาทถ้วน"},
		{"11", "สิบเอ็ดบาทถ้วน"},
		{"21", "ยี่สิบเอ็ดบาทถ้วน"},
		{"30", "สามสิบบาทถ้วน"},
		{"101", "หนึ่งร้อยเอ็ดบาทถ้วน"},
		{"1021.50", "หนึ่งพันยี่สิบเอ็ดบาทห้าสิบสตางค์"},
		{"67.90", "หกสิบเจ็ดบาทเก้าสิบสตางค์"},
		{"0.25", "ศูนย์บาทยี่สิบห้าสตางค์"},
		{"0.01", "ศูนย์บาทหนึ่งสตางค์"},
		{"1000000", "หนึ่งล้านบาทถ้วน"},
		{"1000001", "หนึ่งล้านเอ็ดบาทถ้วน"},
		{"21000000", "ยี่สิบเอ็ดล้านบาทถ้วน"},
		{"2500000.75", "สองล้านห้าแสนบาทเจ็ดสิบห้าสตางค์"},
		{"9.999", "สิบบาทถ้วน"},
		{"-5", "ศูนย์บาทถ้วน"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BahtText(decimal.RequireFromString(tc.in)), tc.in)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1,234.50", FormatAmount(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "30.00", FormatAmount(decimal.NewFromInt(30)))
	assert.Equal(t, "1,000,000.01", FormatAmount(decimal.RequireFromString("1000000.005")))
}
