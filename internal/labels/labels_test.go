package labels

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_KnownCodes(t *testing.T) {
	want := map[string]string{
		"01": "Chinese cabbage",
		"02": "spinach",
		"03": "choy sum",
		"04": "ér cài",
		"05": "leaf mustard",
		"06": "Chinese broccoli",
		"07": "Tricolor daisy",
		"08": "huáng xīn cài",
		"09": "fennel",
		"10": "jī máo cài",
		"11": "garlic chives",
		"12": "water spinach",
		"13": "kuài cài",
		"14": "endive",
		"15": "asparagus",
		"16": "celery",
		"17": "suàn huáng",
		"18": "garlic shoots",
		"19": "crown daisy",
		"20": "pea shoots",
		"21": "lettuce",
		"22": "cilantro",
		"23": "parsley",
		"24": "bok choy",
		"25": "watercress",
		"26": "lettuce",
		"27": "oilseed rape",
		"28": "kale",
		"29": "bamboo shoot",
	}
	require.Len(t, want, 29)

	for code, label := range want {
		t.Run(code, func(t *testing.T) {
			got, err := Lookup(code)
			require.NoError(t, err)
			assert.Equal(t, label, got)
			assert.NotEmpty(t, got)
		})
	}
}

func TestLookup_UnknownCode(t *testing.T) {
	for _, code := range []string{"", "00", "30", "1", "spinach", "01 "} {
		t.Run(fmt.Sprintf("%q", code), func(t *testing.T) {
			got, err := Lookup(code)
			assert.Empty(t, got)
			assert.ErrorIs(t, err, ErrUnknownCode)

			var unknown *UnknownCodeError
			require.True(t, errors.As(err, &unknown))
			assert.Equal(t, code, unknown.Code)
		})
	}
}

func TestLookupLang(t *testing.T) {
	tests := []struct {
		description string
		code        string
		lang        Lang
		want        string
		wantErr     bool
	}{
		{"Should return the English label", "02", English, "spinach", false},
		{"Should return the Chinese label", "02", Chinese, "菠菜", false},
		{"Should fall back to English for an unsupported language", "29", Lang("fr"), "bamboo shoot", false},
		{"Should fall back to English for an empty language", "16", "", "celery", false},
		{"Should fail on an unknown code whatever the language", "42", Chinese, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			got, err := LookupLang(tt.code, tt.lang)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCodes(t *testing.T) {
	codes := Codes()

	require.Len(t, codes, 29)
	assert.Equal(t, "01", codes[0])
	assert.Equal(t, "29", codes[28])
	assert.IsIncreasing(t, codes)

	for _, code := range codes {
		zh, err := LookupLang(code, Chinese)
		require.NoError(t, err)
		assert.NotEmpty(t, zh, code)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Codes()))
	assert.NoError(t, Validate([]string{"05", "01"}))
	assert.ErrorIs(t, Validate(nil), ErrNoClasses)
	assert.ErrorIs(t, Validate([]string{"01", "99"}), ErrUnknownCode)
}
