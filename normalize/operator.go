package normalize

import "strings"

// DefaultOperators maps well known carrier and cloud autonomous systems to
// their display label.
var DefaultOperators = map[uint]string{
	9812: "东方有线", 9389: "中国长城", 17962: "天威视讯", 17429: "歌华有线", 7497: "科技网",
	24139: "华数", 9801: "中关村", 4538: "教育网", 24151: "CNNIC",

	38019: "中国移动", 139080: "中国移动", 9808: "中国移动", 24400: "中国移动", 134810: "中国移动",
	24547: "中国移动", 56040: "中国移动", 56041: "中国移动", 56042: "中国移动", 56044: "中国移动",
	132525: "中国移动", 56046: "中国移动", 56047: "中国移动", 56048: "中国移动", 59257: "中国移动",
	24444: "中国移动", 24445: "中国移动", 137872: "中国移动", 9231: "中国移动", 58453: "中国移动",

	4134: "中国电信", 4812: "中国电信", 23724: "中国电信", 136188: "中国电信", 137693: "中国电信",
	17638: "中国电信", 140553: "中国电信", 4847: "中国电信", 140061: "中国电信", 136195: "中国电信",
	17799: "中国电信", 139018: "中国电信", 134764: "中国电信",

	4837: "中国联通", 4808: "中国联通", 134542: "中国联通", 134543: "中国联通",

	59019: "金山云", 135377: "优刻云", 45062: "网易云", 37963: "阿里云", 45102: "阿里云国际",
	45090: "腾讯云", 132203: "腾讯云国际", 55967: "百度云", 38365: "百度云", 58519: "华为云",
	55990: "华为云", 136907: "华为云", 4609: "澳門電訊", 13335: "Cloudflare", 55960: "亚马逊云",
	14618: "亚马逊云", 16509: "亚马逊云", 15169: "谷歌云", 396982: "谷歌云", 36492: "谷歌云",
	137718: "火山引擎",
}

// KeywordRule labels an AS organization containing any of its keywords.
type KeywordRule struct {
	Label    string   `mapstructure:"label"`
	Keywords []string `mapstructure:"keywords"`
}

// DefaultKeywordRules are evaluated in order, first match wins.
var DefaultKeywordRules = []KeywordRule{
	{Label: "火山引擎", Keywords: []string{"volcano", "byte"}},
	{Label: "阿里云", Keywords: []string{"alibaba", "aliyun", "alicloud"}},
	{Label: "腾讯云", Keywords: []string{"tencent", "qcloud"}},
	{Label: "华为云", Keywords: []string{"huawei"}},
	{Label: "百度云", Keywords: []string{"baidu"}},
	{Label: "亚马逊云", Keywords: []string{"amazon", "aws"}},
	{Label: "谷歌云", Keywords: []string{"google", "gcp"}},
	{Label: "Cloudflare", Keywords: []string{"cloudflare"}},
}

// OperatorResolver labels an autonomous system with its carrier or cloud
// provider name.
type OperatorResolver struct {
	operators map[uint]string
	rules     []KeywordRule
}

// NewOperatorResolver builds a resolver from the default table extended (or
// overridden) by extra. Nil rules means DefaultKeywordRules.
func NewOperatorResolver(extra map[uint]string, rules []KeywordRule) *OperatorResolver {
	operators := make(map[uint]string, len(DefaultOperators)+len(extra))
	for k, v := range DefaultOperators {
		operators[k] = v
	}
	for k, v := range extra {
		operators[k] = v
	}

	if rules == nil {
		rules = DefaultKeywordRules
	}

	normalized := make([]KeywordRule, 0, len(rules))
	for _, r := range rules {
		keywords := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		normalized = append(normalized, KeywordRule{Label: r.Label, Keywords: keywords})
	}

	return &OperatorResolver{
		operators: operators,
		rules:     normalized,
	}
}

func (o *OperatorResolver) ByASN(number uint) (string, bool) {
	label, ok := o.operators[number]
	return label, ok
}

func (o *OperatorResolver) ByOrganization(org string) (string, bool) {
	if org == "" {
		return "", false
	}

	name := strings.ToLower(org)
	for _, r := range o.rules {
		for _, k := range r.Keywords {
			if strings.Contains(name, k) {
				return r.Label, true
			}
		}
	}

	return "", false
}

// Resolve tries the ASN table first and the organization keywords second.
func (o *OperatorResolver) Resolve(number uint, org string) string {
	if label, ok := o.ByASN(number); ok {
		return label
	}

	label, _ := o.ByOrganization(org)
	return label
}
