package models

import "github.com/samber/lo"

// HasSentPrivateRequest reports a pending private message request to username
func (u *User) HasSentPrivateRequest(username string) bool {
	return lo.Contains(u.SentPrivateMessageRequest, username)
}

// AddSentPrivateRequest records a pending private message request, once
func (u *User) AddSentPrivateRequest(username string) bool {
	if u.HasSentPrivateRequest(username) {
		return false
	}
	u.SentPrivateMessageRequest = append(u.SentPrivateMessageRequest, username)
	return true
}

// RemoveSentPrivateRequest clears a pending private message request
func (u *User) RemoveSentPrivateRequest(username string) bool {
	n := len(u.SentPrivateMessageRequest)
	u.SentPrivateMessageRequest = lo.Without(u.SentPrivateMessageRequest, username)
	return n != len(u.SentPrivateMessageRequest)
}

// HasSentGroupRequest reports a pending join request to groupName
func (u *User) HasSentGroupRequest(groupName string) bool {
	return lo.Contains(u.SentGroupJoinRequest, groupName)
}

// AddSentGroupRequest records a pending group join request, once
func (u *User) AddSentGroupRequest(groupName string) bool {
	if u.HasSentGroupRequest(groupName) {
		return false
	}
	u.SentGroupJoinRequest = append(u.SentGroupJoinRequest, groupName)
	return true
}

// RemoveSentGroupRequest clears a pending group join request
func (u *User) RemoveSentGroupRequest(groupName string) bool {
	n := len(u.SentGroupJoinRequest)
	u.SentGroupJoinRequest = lo.Without(u.SentGroupJoinRequest, groupName)
	return n != len(u.SentGroupJoinRequest)
}
