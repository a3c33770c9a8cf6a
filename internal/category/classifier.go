// Package category assigns a coarse shopping category to a recall record
// based on keywords in its product name. Categories line up with the ones the
// shop search API uses, so alternative-product lookups can filter by them.
package category

import "strings"

// Unknown is returned when no keyword rule matches.
const Unknown = "기타"

type rule struct {
	category string
	keywords []string
}

// Rules are evaluated in order; the first keyword hit wins. More specific
// categories come before broad ones.
var rules = []rule{
	{"육아", []string{"유아", "아기", "어린이", "아동", "유모차", "카시트", "젖병", "분유", "기저귀", "완구", "장난감", "침대"}},
	{"식품", []string{"식품", "과자", "음료", "건강기능", "영양제", "분말", "소스", "캔디", "초콜릿"}},
	{"가전", []string{"전기", "전자", "충전", "배터리", "히터", "선풍기", "에어컨", "청소기", "주전자", "밥솥", "가습기"}},
	{"디지털", []string{"노트북", "컴퓨터", "모니터", "키보드", "마우스", "이어폰", "헤드폰", "스피커", "태블릿", "휴대폰"}},
	{"스포츠", []string{"자전거", "헬멧", "킥보드", "운동", "캠핑", "등산", "낚시", "스키", "수영"}},
	{"가구", []string{"가구", "의자", "책상", "소파", "서랍", "옷장", "선반", "매트리스"}},
	{"생활·건강", []string{"세제", "살균", "소독", "화장품", "샴푸", "비누", "마스크", "온수매트", "전기장판", "의료"}},
}

// Classify returns the category for a product name, or Unknown.
func Classify(productName string) string {
	name := strings.ToLower(strings.TrimSpace(productName))
	if name == "" {
		return Unknown
	}
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(name, kw) {
				return r.category
			}
		}
	}
	return Unknown
}
