package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Header names accepted for tenant resolution. Catalog rows are keyed by
// tenant, so every route behind this middleware needs one of these.
const (
	headerVendorID = "X-Vendor-ID"
	headerTenantID = "X-Tenant-ID"
)

// TenantMiddleware resolves the tenant for the request. IstioAuth may have
// already placed tenant_id in context from JWT claims; otherwise the
// X-Vendor-ID header wins over the legacy X-Tenant-ID header. Requests with
// no tenant at all are rejected, never defaulted, since category sequence
// counters and SKU uniqueness are scoped per tenant.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetString("tenant_id")
		if tenantID == "" {
			tenantID = c.GetHeader(headerVendorID)
		}
		if tenantID == "" {
			tenantID = c.GetHeader(headerTenantID)
		}

		if tenantID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TENANT_REQUIRED",
					"message": "Vendor/Tenant ID is required. Include X-Vendor-ID or X-Tenant-ID header.",
				},
			})
			c.Abort()
			return
		}

		// Both key spellings stay populated; RBAC reads tenant_id while
		// older handlers read tenantId.
		c.Set("tenantId", tenantID)
		c.Set("tenant_id", tenantID)
		c.Set("vendor_id", tenantID)
		c.Next()
	}
}

// GetTenantID retrieves the tenant ID from gin context.
func GetTenantID(c *gin.Context) string {
	if tid := c.GetString("tenant_id"); tid != "" {
		return tid
	}
	return c.GetString("tenantId")
}

// GetVendorID retrieves the vendor ID, falling back to the tenant ID when
// the request carried no separate vendor scope.
func GetVendorID(c *gin.Context) string {
	if vid := c.GetString("vendor_id"); vid != "" {
		return vid
	}
	return GetTenantID(c)
}
