// Package layout はキャプションの行分割と縦方向の配置基準を扱います。
package layout

import "strings"

// MeasureFunc は文字列の描画幅をピクセルで返します。
// 通常は描画サーフェスのフォント計測を注入しますが、テストでは固定幅の関数を渡します。
type MeasureFunc func(s string) float64

// Wrap は text を単語単位の貪欲法で maxLineWidth に収まるよう行分割します。
//
// 判定には measure(現在行 + 次の単語 + " ") を使います。収まらなければ現在行を確定し、
// はみ出した単語から新しい行を始めます。maxLineWidth より幅のある単語は分割せず、
// その単語だけで1行とします。空白のみの入力は空のスライスを返します。
func Wrap(text string, maxLineWidth float64, measure MeasureFunc) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	lines := make([]string, 0, 1)
	var current []string
	for _, word := range words {
		candidate := strings.Join(append(current, word), " ") + " "
		if len(current) > 0 && measure(candidate) > maxLineWidth {
			lines = append(lines, strings.Join(current, " "))
			current = nil
		}
		current = append(current, word)
	}
	return append(lines, strings.Join(current, " "))
}
