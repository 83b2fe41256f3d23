package semantic

import (
	"venomc/internal/ast"
)

// trackStorageAccessIfNeeded records storage access if the field access is on a storage struct
func (a *Analyzer) trackStorageAccessIfNeeded(fieldExpr *ast.FieldAccessExpr, structDef *ast.Struct) {
	// Check if this is a storage struct
	if structDef.Attribute == nil || structDef.Attribute.Name != "storage" {
		return // Not a storage struct
	}

	// For now, assume all field accesses are reads by default
	// We'll track writes separately in assignment context
	a.addStorageAccess(structDef.Name.Value, fieldExpr.Field, "read", fieldExpr.NodePos())
}

// analyzeExpressionInWriteContext analyzes expressions that are being written to.
// This is specifically for tracking storage writes in assignment contexts.
func (a *Analyzer) analyzeExpressionInWriteContext(expr ast.Expr) {
	switch node := expr.(type) {
	case *ast.FieldAccessExpr:
		// Analyze the target first
		a.analyzeExpression(node.Target)

		// Track this as a write if it's a storage field
		targetType := a.inferExpressionType(node.Target)
		if targetType != nil {
			structDef := a.context.GetUserDefinedType(targetType.Name)
			if structDef != nil && structDef.Attribute != nil && structDef.Attribute.Name == "storage" {
				a.addStorageAccess(structDef.Name.Value, node.Field, "write", node.NodePos())
			}
		}

		// Also do normal field access validation
		a.analyzeFieldAccess(node)

	case *ast.IndexExpr:
		// For index expressions like State.field[key], we need to check the target
		a.analyzeExpressionInWriteContext(node.Target)
		a.analyzeExpression(node.Index)

	default:
		// For other expression types, fall back to normal analysis
		a.analyzeExpression(expr)
	}
}
