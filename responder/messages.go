package responder

const (
	msgGenericError   = "⚠️ حدث خطأ، تم تسجيله."
	msgAdminOnly      = "⛔️ هذا الأمر للمشرفين فقط!"
	msgDiscarded      = "♻️ تم إلغاء عملية الحفظ السابقة غير المكتملة."
	msgCancelled      = "🚫 تم إلغاء العملية الحالية."
	msgNothingPending = "ℹ️ لا توجد عملية جارية لإلغائها."

	msgAskImage = "🎨 حفظ رد نصي للملصق\n\n" +
		"📤 الخطوة 1 من 3:\n" +
		"أرسل الملصق أو الصورة التي تريد ربط رد نصي بها...\n" +
		"(للإلغاء: /cancel)"
	msgAskAliases = "✅ تم استلام الملصق!\n\n" +
		"📝 الخطوة 2 من 3:\n" +
		"اكتب الكلمات المفتاحية لهذا الملصق\n" +
		"(مفصولة بفاصلة، مثال: عين,عينك,نور)"
	msgAskImageReply = "✅ تم حفظ الكلمات المفتاحية!\n\n" +
		"💬 الخطوة 3 من 3:\n" +
		"اكتب النص الذي تريد ربطه بهذا الملصق"
	msgAskTextReply = "📝 حفظ رد نصي\n\n" +
		"🔑 الكلمات المفتاحية: %s\n" +
		"📤 الخطوة 2 من 2:\n" +
		"أرسل النص الذي تريد ربطه بهذه الكلمات..."
	msgImageSaved    = "🎉 تم الحفظ بنجاح! 🎉\n\n🆔 المعرف: %s\n🔑 الكلمات: %s\n💬 الرد: %s"
	msgTextSaved     = "✅ تم حفظ الرد النصي!\n\n🔑 الكلمات: %s\n💬 الرد: %s"
	msgTextSkipped   = "⚠️ كلمات موجودة مسبقاً ولم تتغير: %s"
	msgTextNoneAdded = "⚠️ جميع الكلمات موجودة مسبقاً، لم يتم حفظ أي رد جديد."

	msgEmptyAliases = "❌ يجب كتابة كلمات مفتاحية صحيحة!"
	msgTextUsage    = "📝 الاستخدام: /st كلمة1,كلمة2,كلمة3"
	msgEmptyReply   = "❌ لا يمكن أن يكون الرد فارغاً!"

	msgDeleteHeader   = "🗑️ اختر رقم العنصر للحذف:"
	msgDeleteEmpty    = "📭 لا توجد عناصر للحذف!"
	msgDeleteNoList   = "❌ استخدم /del أولاً لعرض القائمة!"
	msgDeleteNotInt   = "❌ يجب إدخال رقم صحيح!\n📝 مثال: /delnum 1"
	msgDeleteRange    = "❌ الرقم غير صالح! اختر رقماً من 1 إلى %d"
	msgDeleteStale    = "🔄 تغيّرت القائمة منذ عرضها، استخدم /del مرة أخرى."
	msgDeleteNotFound = "❌ العنصر رقم %d لم يعد موجوداً."
	msgDeleted        = "✅ تم الحذف بنجاح!\n🗑️ العنصر المحذوف: %s"
	labelImage        = "ملصق: "
	labelText         = "نص: "

	msgSearchUsage = "🔍 الاستخدام: /search كلمة"
	msgSearchNone  = "🔍 لا توجد نتائج لـ \"%s\""
	msgListEmpty   = "📋 القائمة فارغة حالياً"
	msgBackupOff   = "❌ النسخ الاحتياطي غير مفعل."
	msgBackupFail  = "❌ فشل في إنشاء النسخة الاحتياطية!"
	msgBackupDone  = "✅ تم إنشاء نسخة احتياطية!\n\n📂 المجلد: %s\n🕒 الوقت: %s\n📊 الملفات: %d ملف"

	msgRoleAdmin = "مشرف"
	msgRoleUser  = "مستخدم عادي"
	msgOn        = "✅ مفعل"
	msgOff       = "❌ معطل"
)
