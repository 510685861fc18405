// Package handler HTTP接口层：参数绑定、调用服务、输出统一响应
package handler

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"oasis/internal/repository"
	"oasis/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// 校验错误中使用 json 字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// bindJSON 绑定请求体，失败时输出400并返回false
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			response.BadField(c, fe.Field(), "字段"+fe.Field()+"校验失败: "+fe.Tag())
			return false
		}
		response.BadRequest(c, "请求体格式错误: "+err.Error())
		return false
	}
	return true
}

// paramID 解析路径中的正整数ID
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadField(c, name, "无效的"+name)
		return 0, false
	}
	return uint(id), true
}

// queryID 解析可选的查询参数ID，缺省为0
func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		response.BadField(c, name, "无效的"+name)
		return 0, false
	}
	return uint(id), true
}

// pageOf 读取 page/page_size 查询参数
func pageOf(c *gin.Context) repository.Page {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return repository.NewPage(page, size)
}

// writePage 分页响应
func writePage(c *gin.Context, items interface{}, page repository.Page, total int64) {
	response.Page(c, items, page.Page, page.PageSize, total)
}
