package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RoleStaff,
	domain.RolePlanner,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

// GenerateRandomEmployees 生成 n 名名字互不相同的在岗员工，团队编号在 0 到 2 之间
// 名字重复时在后面加上序号
func GenerateRandomEmployees(n int) []*domain.Employee {
	employees := make([]*domain.Employee, 0, n)
	seen := make(map[string]bool, n)

	for len(employees) < n {
		name := GenerateRandomChineseName()
		if seen[name] {
			name = fmt.Sprintf("%s%d", name, len(employees))
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		employees = append(employees, &domain.Employee{
			Name:      name,
			Team:      int32(rand.Intn(3)),
			IsPresent: true,
		})
	}

	return employees
}

// GenerateRandomConflicts 在员工之间随机生成至多 n 条互不重复的冲突关系
func GenerateRandomConflicts(employees []*domain.Employee, n int) []*domain.Conflict {
	conflicts := make([]*domain.Conflict, 0, n)
	if len(employees) < 2 {
		return conflicts
	}

	n = min(n, len(employees)*(len(employees)-1)/2)
	seen := make(map[[2]int]bool, n)

	for len(conflicts) < n {
		i, j := rand.Intn(len(employees)), rand.Intn(len(employees))
		if i == j {
			continue
		}
		if i > j {
			i, j = j, i
		}
		if seen[[2]int{i, j}] {
			continue
		}
		seen[[2]int{i, j}] = true

		conflicts = append(conflicts, &domain.Conflict{
			EmployeeID:     employees[i].ID,
			EmployeeName:   employees[i].Name,
			ConflictorID:   employees[j].ID,
			ConflictorName: employees[j].Name,
		})
	}

	return conflicts
}
