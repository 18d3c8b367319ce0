// Package labels maps classifier label codes to display names.
package labels

import (
	"slices"

	"github.com/samber/lo"
)

// Lang is a display language for labels.
type Lang string

const (
	// English is the default display language.
	English Lang = "en"

	// Chinese renders labels with their simplified Chinese names.
	Chinese Lang = "zh"
)

// entry holds the display names of one category.
type entry struct {
	en string
	zh string
}

// table is the fixed set of categories the herbs classifier was trained on.
// Names without a common English equivalent keep their pinyin spelling.
var table = map[string]entry{
	"01": {en: "Chinese cabbage", zh: "大白菜"},
	"02": {en: "spinach", zh: "菠菜"},
	"03": {en: "choy sum", zh: "菜心"},
	"04": {en: "ér cài", zh: "儿菜"},
	"05": {en: "leaf mustard", zh: "芥菜"},
	"06": {en: "Chinese broccoli", zh: "芥蓝"},
	"07": {en: "Tricolor daisy", zh: "三色菊"},
	"08": {en: "huáng xīn cài", zh: "黄心菜"},
	"09": {en: "fennel", zh: "茴香"},
	"10": {en: "jī máo cài", zh: "鸡毛菜"},
	"11": {en: "garlic chives", zh: "韭菜"},
	"12": {en: "water spinach", zh: "空心菜"},
	"13": {en: "kuài cài", zh: "快菜"},
	"14": {en: "endive", zh: "苦菊"},
	"15": {en: "asparagus", zh: "芦笋"},
	"16": {en: "celery", zh: "芹菜"},
	"17": {en: "suàn huáng", zh: "蒜黄"},
	"18": {en: "garlic shoots", zh: "蒜苗"},
	"19": {en: "crown daisy", zh: "茼蒿"},
	"20": {en: "pea shoots", zh: "豌豆苗"},
	"21": {en: "lettuce", zh: "生菜"},
	"22": {en: "cilantro", zh: "香菜"},
	"23": {en: "parsley", zh: "欧芹"},
	"24": {en: "bok choy", zh: "上海青"},
	"25": {en: "watercress", zh: "西洋菜"},
	"26": {en: "lettuce", zh: "油麦菜"},
	"27": {en: "oilseed rape", zh: "油菜"},
	"28": {en: "kale", zh: "羽衣甘蓝"},
	"29": {en: "bamboo shoot", zh: "竹笋"},
}

// Lookup returns the English display label for code.
func Lookup(code string) (string, error) {
	return LookupLang(code, English)
}

// LookupLang returns the display label for code in lang.
// Unsupported languages fall back to English; unknown codes fail.
func LookupLang(code string, lang Lang) (string, error) {
	e, ok := table[code]
	if !ok {
		return "", &UnknownCodeError{Code: code}
	}

	if lang == Chinese {
		return e.zh, nil
	}

	return e.en, nil
}

// Codes returns every known label code in ascending order.
func Codes() []string {
	codes := lo.Keys(table)
	slices.Sort(codes)

	return codes
}

// Known reports whether code is part of the label table.
func Known(code string) bool {
	_, ok := table[code]
	return ok
}

// Validate checks that every class emitted by a model has a display label.
func Validate(classes []string) error {
	if len(classes) == 0 {
		return ErrNoClasses
	}

	unknown := lo.Reject(classes, func(code string, _ int) bool {
		return Known(code)
	})
	if len(unknown) > 0 {
		return &UnknownCodeError{Code: unknown[0]}
	}

	return nil
}
