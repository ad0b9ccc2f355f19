package research

import (
	"fmt"
	"strings"
	"time"

	"github.com/meridianlabs/company-researcher/internal/model"
)

// Query generation prompts. The model is asked for one query per line; the
// stream parser depends on that framing.

const queryGuidelines = `
Important Guidelines:
- Focus ONLY on %s-specific information
- Make queries very brief and to the point
- Provide exactly %d search queries (one per line), with no hyphens or dashes
- DO NOT make assumptions about the industry - use only the provided industry information`

func querySystemPrompt(rc Context) string {
	return fmt.Sprintf("You are researching %s, a company in the %s industry.", rc.Company, rc.Industry)
}

func queryPrompt(cat model.Category, rc Context, now time.Time, maxQueries int) string {
	var focus string
	switch cat {
	case model.CategoryCompany:
		focus = fmt.Sprintf(`Generate queries on the company fundamentals of %s such as:
- Core products and services
- Leadership team
- Target market and customers
- Business model and differentiators`, rc.Company)
	case model.CategoryIndustry:
		focus = fmt.Sprintf(`Generate queries on the industry analysis of %s such as:
- Market position and share
- Competitive landscape
- Industry trends in %s
- Market size and growth`, rc.Company, rc.Industry)
	case model.CategoryFinancial:
		focus = fmt.Sprintf(`Generate queries on the financial analysis of %s such as:
- Funding rounds and investors
- Revenue model and pricing
- Financial performance %d
- Valuation`, rc.Company, now.Year())
	case model.CategoryNews:
		focus = fmt.Sprintf(`Generate queries to find recent news on %s such as:
- Major announcements
- Partnerships and integrations
- Awards and recognition
- Press releases %d`, rc.Company, now.Year())
	default:
		focus = fmt.Sprintf("Generate research queries about %s.", rc.Company)
	}

	return fmt.Sprintf("Researching %s on %s.\n%s\n%s",
		rc.Company,
		now.Format("January 2, 2006"),
		focus,
		fmt.Sprintf(queryGuidelines, rc.Company, maxQueries),
	)
}

// fallbackQueries are the deterministic queries used when every generation
// attempt fails. Kept per category so search still lands in topic.
func fallbackQueries(cat model.Category, company string, year int) []string {
	switch cat {
	case model.CategoryCompany:
		return []string{
			fmt.Sprintf("%s company overview %d", company, year),
			fmt.Sprintf("%s business model", company),
			fmt.Sprintf("%s products and services", company),
			fmt.Sprintf("%s leadership team", company),
		}
	case model.CategoryFinancial:
		return []string{
			fmt.Sprintf("%s financial performance %d", company, year),
			fmt.Sprintf("%s revenue %d", company, year),
			fmt.Sprintf("%s financial reports %d", company, year),
			fmt.Sprintf("%s profit margin", company),
		}
	case model.CategoryIndustry:
		return []string{
			fmt.Sprintf("%s industry position %d", company, year),
			fmt.Sprintf("%s market share", company),
			fmt.Sprintf("%s competitors analysis", company),
			fmt.Sprintf("%s industry trends %d", company, year),
		}
	case model.CategoryNews:
		return []string{
			fmt.Sprintf("%s latest news %d", company, year),
			fmt.Sprintf("%s recent developments", company),
			fmt.Sprintf("%s press releases %d", company, year),
			fmt.Sprintf("%s recent announcements", company),
		}
	}
	return []string{
		fmt.Sprintf("%s overview %d", company, year),
		fmt.Sprintf("%s recent news %d", company, year),
		fmt.Sprintf("%s financial reports %d", company, year),
		fmt.Sprintf("%s industry analysis %d", company, year),
	}
}

// Briefing prompts. The report is written in Chinese; the structural headings
// here must match what the compiler enforces later.

func briefingPrompt(cat model.Category, rc Context) string {
	switch cat {
	case model.CategoryCompany:
		return fmt.Sprintf(`为%[1]s（一家位于%[2]s的%[3]s公司）创建一份重点公司简报。
关键要求：
1. 以这样的句式开始："%[1]s是一家[做什么的]，为[谁]提供[什么服务]"
2. 使用以下确切的标题和要点结构：

### 核心产品/服务
* 列出独特的产品/功能
* 仅包含经验证的技术能力

### 领导团队
* 列出关键领导团队成员
* 包括他们的角色和专长

### 目标市场
* 列出特定目标受众
* 列出经验证的使用案例
* 列出已确认的客户/合作伙伴

### 关键差异化因素
* 列出独特功能
* 列出已证实的优势

### 商业模式
* 讨论产品/服务定价
* 列出分销渠道

3. 每个要点必须是单一、完整的事实
4. 不要提及"未找到信息"或"无可用数据"
5. 不要使用段落，只使用要点
6. 仅提供简报内容，不要解释或评论
7. 所有内容必须使用中文输出`, rc.Company, rc.HQLocation, rc.Industry)

	case model.CategoryIndustry:
		return fmt.Sprintf(`你是世界顶尖的行业分析师，精通市场研究、竞争情报和战略预测。为%[1]s（一家位于%[2]s的%[3]s公司）创建一份Gartner风格的行业分析报告。

关键要求：
1. 基于公开数据、历史趋势和逻辑推测，生成清晰有条理的见解
2. 用假设做数据支持的预测（要说明假设）
3. 找出顶尖厂商，按细分领域、规模或创新性分类
4. 指出风险、新兴玩家和未来趋势
5. 明确区分估计数据和已知数据

使用以下结构：

### 1. 市场概览
* %[1]s的市场定位和细分
* 当前市场规模及增长趋势（注明数据来源年份）
* 关键驱动因素和制约因素

### 2. 主要参与者
* 按细分领域列出TOP 3-5厂商
* 各厂商的核心竞争力和市场份额估计
* 新兴玩家及其创新点

### 3. 预测（1-3年）
* 基于[具体假设]的增长预测
* 技术演进路线图
* 潜在颠覆性因素

### 4. 机会与风险
* 最具潜力的3个市场机会
* 需要警惕的2-3个主要风险
* 监管环境变化的影响

### 5. 战略洞见
* 对%[1]s的3条具体战略建议
* 需要重点关注的竞争领域
* 推荐的投资方向

注意事项：
1. 保持专业、简洁的分析风格
2. 使用中文标点符号和术语
3. 每个观点必须有数据或逻辑支持
4. 明确标注哪些是估计，哪些是已知数据`, rc.Company, rc.HQLocation, rc.Industry)

	case model.CategoryFinancial:
		return fmt.Sprintf(`为%[1]s（一家位于%[2]s的%[3]s公司）创建一份重点财务简报。
关键要求：
1. 使用以下标题和要点结构：

### 融资与投资
* 总融资金额及日期
* 列出每轮融资及日期
* 列出具名投资者

### 收入模式
* 讨论产品/服务定价（如适用）

2. 尽可能包含具体数字
3. 不要使用段落，只使用要点
4. 不要提及"未找到信息"或"无可用数据"
5. 切勿重复提及同一轮融资。始终假设同一月份的多轮融资是同一轮
6. 不要包含融资金额范围。根据提供的信息，用你的最佳判断确定确切金额
7. 仅提供简报内容，不要解释或评论
8. 所有内容必须使用中文输出`, rc.Company, rc.HQLocation, rc.Industry)

	case model.CategoryNews:
		return fmt.Sprintf(`为%[1]s（一家位于%[2]s的%[3]s公司）创建一份重点新闻简报。
关键要求：
1. 使用以下类别结构和要点：

### 重大公告
* 产品/服务发布
* 新举措

### 合作关系
* 集成
* 协作

### 荣誉认可
* 奖项
* 媒体报道

2. 按从新到旧排序
3. 每个要点一个事件
4. 不要提及"未找到信息"或"无可用数据"
5. 不要使用###标题，只使用要点
6. 仅提供简报内容，不要提供解释或评论
7. 所有内容必须使用中文输出`, rc.Company, rc.HQLocation, rc.Industry)
	}

	return fmt.Sprintf("请基于提供的文档，创建一份关于%s行业中%s公司的重点研究简报。", rc.Industry, rc.Company)
}

const briefingDocSeparator = "\n" + "----------------------------------------" + "\n"

func briefingFullPrompt(cat model.Category, rc Context, docTexts []string) string {
	return fmt.Sprintf(`%s

请分析以下文档并提取关键信息。仅提供简报内容，不要解释或评论。请使用中文输出所有内容：

%s%s%s

注意：
1. 所有内容必须使用中文输出
2. 保持专业、简洁的语言风格
3. 使用中文标点符号
4. 保持统一的中文术语翻译
`, briefingPrompt(cat, rc), briefingDocSeparator, strings.Join(docTexts, briefingDocSeparator), briefingDocSeparator)
}

// Editor prompts.

const compileSystemPrompt = "You are an expert report editor that compiles research briefings into comprehensive company reports."

const sweepSystemPrompt = "You are an expert markdown formatter that ensures consistent document structure."

func compilePrompt(rc Context, combined string) string {
	return fmt.Sprintf(`你正在编译关于%[1]s的综合研究报告。

已编译的简报内容：
%[4]s

请创建一份关于%[1]s（一家总部位于%[2]s的%[3]s公司）的全面而重点突出的报告，要求：
1. 将所有部分的信息整合成一个连贯且不重复的叙述
2. 保留每个部分的重要细节
3. 逻辑地组织信息，删除过渡性评论/解释
4. 使用清晰的章节标题和结构

格式规则：
严格遵守以下确切的文档结构：

# %[1]s研究报告

## 公司概览
[公司内容，使用###子标题]

## 行业概览
[行业内容，使用###子标题]

## 财务概览
[财务内容，使用###子标题]

## 新闻
[新闻内容，使用###子标题]

请以清晰的markdown格式返回报告。不要添加解释或评论。所有内容必须使用中文输出。`, rc.Company, rc.HQLocation, rc.Industry, combined)
}

func sweepPrompt(rc Context, content string) string {
	return fmt.Sprintf(`你是一位专业的简报编辑。你收到了一份关于%[1]s的报告。

当前报告：
%[4]s

请执行以下操作：
1. 删除冗余或重复的信息
2. 删除与%[1]s（一家总部位于%[2]s的%[3]s公司）无关的信息
3. 删除缺乏实质内容的部分
4. 删除任何元评论（例如"以下是新闻..."）

严格遵守以下确切的文档结构：

## 公司概览
[公司内容，使用###子标题]

## 行业概览
[行业内容，使用###子标题]

## 财务概览
[财务内容，使用###子标题]

## 新闻
[新闻内容，使用要点]

## 参考资料
[MLA格式的参考资料 - 完全按原样保留]

关键规则：
1. 文档必须以"# %[1]s研究报告"开头
2. 文档必须且只能按此顺序使用以下确切的##标题：
   - ## 公司概览
   - ## 行业概览
   - ## 财务概览
   - ## 新闻
   - ## 参考资料
3. 不允许使用其他##标题
4. 在公司/行业/财务部分使用###作为子标题
5. 新闻部分应只使用要点(*)，不使用标题
6. 不要使用代码块(` + "```" + `)
7. 各部分之间不要使用超过一个空行
8. 所有要点都使用*格式
9. 每个部分/列表前后添加一个空行
10. 不要更改参考资料部分的格式

请以完美的markdown格式返回润色后的报告。不要添加解释。所有内容必须使用中文输出。`, rc.Company, rc.HQLocation, rc.Industry, content)
}
