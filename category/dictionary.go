package category

// 分类名称（与 posts.category 一致）
const (
	Development   = "개발"
	Certification = "자격증"
	English       = "영어"
	Reading       = "독서"
	Career        = "취업"
	Etc           = "기타"
)

// Dictionary 分类关键词词典，进程启动时加载一次后只读
type Dictionary struct {
	// Priority 单分类推断时的优先级顺序
	Priority []string `yaml:"priority"`
	// Keywords 分类 -> 关键词列表
	Keywords map[string][]string `yaml:"keywords"`
	// Synonyms 旧分类名 -> 当前分类名
	Synonyms map[string]string `yaml:"synonyms"`
	// TechTags 技术栈标签
	TechTags []string `yaml:"tech_tags"`
}

// DefaultDictionary 内置词典
func DefaultDictionary() Dictionary {
	return Dictionary{
		Priority: []string{Development, Certification, English, Reading, Career, Etc},
		Keywords: map[string][]string{
			Development: {
				"코딩", "프로그래밍", "개발", "소프트웨어", "알고리즘", "자바", "파이썬", "자바스크립트",
				"스프링", "리액트", "백엔드", "프론트엔드", "데이터베이스", "프레임워크", "웹", "앱",
				"api", "java", "python", "javascript", "typescript", "react", "vue", "angular",
				"spring", "django", "flask", "node.js", "mysql", "postgresql", "mongodb", "redis",
				"docker", "kubernetes", "aws", "git", "github", "html", "css", "jpa", "graphql",
			},
			Certification: {
				"자격증", "시험", "합격", "공인", "인증", "자격", "정보처리기사", "기사", "산업기사",
				"sqld", "adsp", "컴활", "필기", "실기",
			},
			English: {
				"영어", "토익", "토플", "회화", "번역", "문법", "오픽", "스피킹", "어학", "단어",
				"english", "toeic", "toefl", "opic", "일본어", "중국어",
			},
			Reading: {
				"독서", "책", "북클럽", "독후감", "서평", "소설", "에세이", "문학", "도서", "읽기",
			},
			Career: {
				"취업", "면접", "포트폴리오", "이력서", "자소서", "자기소개서", "인턴", "신입", "경력",
				"채용", "코딩테스트", "공채",
			},
			Etc: {
				"모임", "만남", "친목", "네트워킹", "소통", "커뮤니티", "동아리", "클럽", "취미",
				"봉사", "운동", "요리", "음악", "미술", "사진", "여행",
			},
		},
		Synonyms: map[string]string{
			"프로그래밍": Development,
			"코딩":    Development,
			"언어":    English,
		},
		TechTags: []string{
			"Java", "Python", "JavaScript", "TypeScript", "React", "Vue", "Angular",
			"Spring", "Django", "Flask", "Node.js", "Express", "MySQL", "PostgreSQL",
			"MongoDB", "Redis", "Docker", "Kubernetes", "AWS", "Git", "GitHub",
			"HTML", "CSS", "SCSS", "Bootstrap", "Tailwind", "jQuery", "REST API",
			"GraphQL", "JPA", "Hibernate", "MyBatis", "Spring Boot", "Spring Security",
		},
	}
}
