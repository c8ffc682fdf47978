// Package op defines the operators understood by the expression evaluator.
package op

// BinaryOpType describes a type of binary operation, as in an operation that
// takes two operands. For example, addition, subtraction, multiplication, etc.
type BinaryOpType uint16

const (
	Add      BinaryOpType = 1
	Subtract BinaryOpType = 2
	Multiply BinaryOpType = 3
	Divide   BinaryOpType = 4
	Modulo   BinaryOpType = 5
	And      BinaryOpType = 6
	Or       BinaryOpType = 7
	Power    BinaryOpType = 9
	Contains BinaryOpType = 14
)

// String returns a string representation of the binary operation.
// For example "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	case And:
		return "&&"
	case Or:
		return "||"
	case Power:
		return "**"
	case Contains:
		return "contains"
	default:
		return ""
	}
}

// IsLogical returns true for the short-circuiting operators.
func (bop BinaryOpType) IsLogical() bool {
	return bop == And || bop == Or
}

// CompareOpType describes a type of comparison operation. For example, less
// than, greater than, equal, etc.
type CompareOpType uint16

const (
	LessThan           CompareOpType = 1
	LessThanOrEqual    CompareOpType = 2
	Equal              CompareOpType = 3
	NotEqual           CompareOpType = 4
	GreaterThan        CompareOpType = 5
	GreaterThanOrEqual CompareOpType = 6
)

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	default:
		return ""
	}
}

// UnaryOpType describes a prefix operation.
type UnaryOpType uint16

const (
	Not      UnaryOpType = 1
	Negative UnaryOpType = 2
)

func (uop UnaryOpType) String() string {
	switch uop {
	case Not:
		return "!"
	case Negative:
		return "-"
	default:
		return ""
	}
}

var binaryOps = map[string]BinaryOpType{
	"+":        Add,
	"-":        Subtract,
	"*":        Multiply,
	"/":        Divide,
	"%":        Modulo,
	"&&":       And,
	"||":       Or,
	"**":       Power,
	"contains": Contains,
}

var compareOps = map[string]CompareOpType{
	"<":  LessThan,
	"<=": LessThanOrEqual,
	"==": Equal,
	"!=": NotEqual,
	">":  GreaterThan,
	">=": GreaterThanOrEqual,
}

// Binary looks up the binary operation for the given operator text.
func Binary(s string) (BinaryOpType, bool) {
	bop, ok := binaryOps[s]
	return bop, ok
}

// Compare looks up the comparison operation for the given operator text.
func Compare(s string) (CompareOpType, bool) {
	cop, ok := compareOps[s]
	return cop, ok
}

// Unary looks up the prefix operation for the given operator text.
func Unary(s string) (UnaryOpType, bool) {
	switch s {
	case "!":
		return Not, true
	case "-":
		return Negative, true
	}
	return 0, false
}

// AssignOp returns the binary operation applied by a compound assignment
// operator such as "+=". The plain "=" operator returns false.
func AssignOp(s string) (BinaryOpType, bool) {
	if len(s) != 2 || s[1] != '=' {
		return 0, false
	}
	switch s[0] {
	case '+':
		return Add, true
	case '-':
		return Subtract, true
	case '*':
		return Multiply, true
	case '/':
		return Divide, true
	}
	return 0, false
}
