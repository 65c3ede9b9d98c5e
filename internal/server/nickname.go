package server

import "math/rand/v2"

// 昵称词库
var (
	adjectives = []string{
		"勇敢的", "聪明的", "快乐的", "神秘的", "酷炫的",
		"优雅的", "可爱的", "威武的", "沉稳的", "活泼的",
		"机智的", "潇洒的", "淡定的", "闪亮的", "高冷的",
	}

	nouns = []string{
		"红桃", "蓝鲸", "绿萝", "黄鹂", "彩虹",
		"熊猫", "狐狸", "海豚", "企鹅", "考拉",
		"柯基", "龙猫", "仓鼠", "松鼠", "羊驼",
	}
)

// GenerateNickname 生成随机昵称
func GenerateNickname() string {
	return adjectives[rand.IntN(len(adjectives))] + nouns[rand.IntN(len(nouns))]
}
