package model

import (
	"math"
	"strings"
)

// memberNames lists talents in official roster order.
var memberNames = []string{
	// Gen 0
	"ときのそら", "ロボ子さん", "AZKi", "さくらみこ", "星街すいせい",
	// Gen 1
	"アキ・ローゼンタール", "赤井はあと", "白上フブキ", "夏色まつり",
	// Gen 2
	"紫咲シオン", "百鬼あやめ", "癒月ちょこ", "大空スバル", "湊あくあ",
	// GAMERS
	"大神ミオ", "猫又おかゆ", "戌神ころね",
	// Gen 3
	"兎田ぺこら", "不知火フレア", "白銀ノエル", "宝鐘マリン",
	// Gen 4
	"天音かなた", "角巻わため", "常闇トワ", "姫森ルーナ", "桐生ココ",
	// Gen 5
	"雪花ラミィ", "桃鈴ねね", "獅白ぼたん", "尾丸ポルカ",
	// holoX
	"ラプラス・ダークネス", "鷹嶺ルイ", "博衣こより", "沙花叉クロヱ", "風真いろは",
	// Indonesia
	"アユンダ・リス", "ムーナ・ホシノヴァ", "アイラニ・イオフィフティーン",
	"クレイジー・オリー", "アーニャ・メルフィッサ", "パヴォリア・レイネ",
	"ベスティア・ゼータ", "カエラ・コヴァルスキア", "こぼ・かなえる",
	// Myth
	"森カリオペ", "小鳥遊キアラ", "一伊那尓栖", "がうる・ぐら", "ワトソン・アメリア",
	// Project: HOPE
	"IRyS",
	// Council
	"オーロ・クロニー", "七詩ムメイ", "ハコス・ベールズ", "九十九佐命", "セレス・ファウナ",
	// Advent
	"シオリ・ノヴェラ", "古石ビジュー", "ネリッサ・レイヴンクロフト",
	"フワワ・アビスガード", "モココ・アビスガード",
	// Justice
	"エリザベス・ローズ・ブラッドフレイム", "ジジ・ムリン", "セシリア・イマーグリーン", "ラオーラ・パンテーラ",
	// ReGLOSS
	"火威青", "音乃瀬奏", "一条莉々華", "儒烏風亭らでん", "轟はじめ",
	// FLOW GLOW
	"響咲リオナ", "虎金妃笑虎", "水宮枢", "輪堂千速", "綺々羅々ヴィヴィ",
	// Staff
	"春先のどか", "友人A（えーちゃん）",
}

// MemberOrder returns the roster position of the first talent named in text,
// or math.MaxInt when none is.
func MemberOrder(text string) int {
	for i, name := range memberNames {
		if strings.Contains(text, name) {
			return i
		}
	}
	return math.MaxInt
}
