// Package html normalises HTML documents such as saved opinions and
// statute pages. Text also serves providers whose APIs return markup.
package html
