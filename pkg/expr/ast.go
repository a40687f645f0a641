package expr

// Node is the interface implemented by all expression AST nodes.
// The set of implementations is closed; the evaluator switches over it
// exhaustively and anything else is unrepresentable.
type Node interface {
	Pos() int  // 1-based column within the expression text
	exprNode() // sealed marker
}

// BinaryOp represents an arithmetic binary operator.
type BinaryOp string

const (
	OpAdd      BinaryOp = "+"
	OpSub      BinaryOp = "-"
	OpMul      BinaryOp = "*"
	OpDiv      BinaryOp = "/"
	OpMod      BinaryOp = "%"
	OpFloorDiv BinaryOp = "//"
	OpPow      BinaryOp = "**"
)

// CompareOp represents a comparison operator. Chaining is rejected at
// parse time.
type CompareOp string

const (
	OpEq   CompareOp = "=="
	OpNeq  CompareOp = "!="
	OpLt   CompareOp = "<"
	OpLtEq CompareOp = "<="
	OpGt   CompareOp = ">"
	OpGtEq CompareOp = ">="
)

// LogicOp represents a boolean connective.
type LogicOp string

const (
	OpAnd LogicOp = "and"
	OpOr  LogicOp = "or"
)

// UnaryOp represents a unary operator.
type UnaryOp string

const (
	OpPos UnaryOp = "+"
	OpNeg UnaryOp = "-"
	OpNot UnaryOp = "not"
)

type IntLit struct {
	Col   int
	Value int64
}

func (n *IntLit) Pos() int  { return n.Col }
func (n *IntLit) exprNode() {}

type FloatLit struct {
	Col   int
	Value float64
}

func (n *FloatLit) Pos() int  { return n.Col }
func (n *FloatLit) exprNode() {}

type BoolLit struct {
	Col   int
	Value bool
}

func (n *BoolLit) Pos() int  { return n.Col }
func (n *BoolLit) exprNode() {}

type StrLit struct {
	Col   int
	Value string
}

func (n *StrLit) Pos() int  { return n.Col }
func (n *StrLit) exprNode() {}

type Ident struct {
	Col  int
	Name string
}

func (n *Ident) Pos() int  { return n.Col }
func (n *Ident) exprNode() {}

type Binary struct {
	Col   int
	Op    BinaryOp
	Left  Node
	Right Node
}

func (n *Binary) Pos() int  { return n.Col }
func (n *Binary) exprNode() {}

type Compare struct {
	Col   int
	Op    CompareOp
	Left  Node
	Right Node
}

func (n *Compare) Pos() int  { return n.Col }
func (n *Compare) exprNode() {}

type Logic struct {
	Col   int
	Op    LogicOp
	Left  Node
	Right Node
}

func (n *Logic) Pos() int  { return n.Col }
func (n *Logic) exprNode() {}

type Unary struct {
	Col     int
	Op      UnaryOp
	Operand Node
}

func (n *Unary) Pos() int  { return n.Col }
func (n *Unary) exprNode() {}

// Call is an invocation of a whitelisted builtin. The parser rejects any
// name outside the whitelist, so Name always refers to a known builtin.
type Call struct {
	Col  int
	Name string
	Args []Node
}

func (n *Call) Pos() int  { return n.Col }
func (n *Call) exprNode() {}
