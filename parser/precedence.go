package parser

import "github.com/mvel/mvel-sub010/internal/token"

// Precedence order for operators
const (
	_ int = iota
	LOWEST
	ASSIGN      // = += -= *= /=
	TERNARY     // ? :
	OR          // ||
	AND         // &&
	EQUALS      // == or !=
	LESSGREATER // > or < or contains
	SUM         // + or -
	PRODUCT     // * or / or %
	POWER       // **
	PREFIX      // -X or !X
	CALL        // myFunction(X)
	INDEX       // array[index], obj.prop, obj?.prop
	HIGHEST
)

// Precedences for each token type
var precedences = map[token.Type]int{
	token.ASSIGN:          ASSIGN,
	token.PLUS_EQUALS:     ASSIGN,
	token.MINUS_EQUALS:    ASSIGN,
	token.ASTERISK_EQUALS: ASSIGN,
	token.SLASH_EQUALS:    ASSIGN,
	token.QUESTION:        TERNARY,
	token.OR:              OR,
	token.AND:             AND,
	token.EQ:              EQUALS,
	token.NOT_EQ:          EQUALS,
	token.LT:              LESSGREATER,
	token.LT_EQUALS:       LESSGREATER,
	token.GT:              LESSGREATER,
	token.GT_EQUALS:       LESSGREATER,
	token.CONTAINS:        LESSGREATER,
	token.PLUS:            SUM,
	token.MINUS:           SUM,
	token.SLASH:           PRODUCT,
	token.ASTERISK:        PRODUCT,
	token.MOD:             PRODUCT,
	token.POW:             POWER,
	token.LPAREN:          CALL,
	token.PERIOD:          INDEX,
	token.QUESTION_DOT:    INDEX,
	token.LBRACKET:        INDEX,
}
